// Package projector flattens a surviving event's selection into a Row of
// derived kinematics and hands it to the configured sinks.
package projector

import "github.com/banshee-data/truthana/internal/channel"

// Unset is reported for angular distances that cannot be formed.
const Unset = -1.0

// Row is one output record. Momenta, energies and masses are in GeV.
type Row struct {
	RunNumber   uint64
	EventNumber uint64
	NJets       int64
	NFatJets    int64
	NTruthTaus  int64

	Tau0Pt, Tau0Eta, Tau0Phi          float64
	Tau1Pt, Tau1Eta, Tau1Phi          float64
	TauVis0Pt, TauVis0Eta, TauVis0Phi float64
	TauVis1Pt, TauVis1Eta, TauVis1Phi float64
	B0Pt, B0Eta, B0Phi                float64
	B1Pt, B1Eta, B1Phi                float64
	BJet0Pt, BJet0Eta, BJet0Phi       float64
	BJet1Pt, BJet1Eta, BJet1Phi       float64

	DiBJetPt, DiBJetM, DiBJetEta, DiBJetPhi float64

	DRBB                   float64
	DRBJetBJet             float64
	DRTauTau               float64
	DRTauVisTauVis         float64
	DRBBTauTau             float64
	DRBJetBJetTauVisTauVis float64
	DRDiBJetTauVisTauVis   float64

	MBB           float64
	MTauTau       float64
	MBJetBJet     float64
	MTauVisTauVis float64
	MHH           float64
	PtBB          float64
	PtTauTau      float64

	MCWeight float64
	Channel  channel.Channel
}

// ColumnKind is the storage type of a column.
type ColumnKind int

const (
	KindUint64 ColumnKind = iota
	KindInt64
	KindFloat64
	KindString
)

// Column names one Row field for the tabular writers.
type Column struct {
	Name string
	Kind ColumnKind
}

func f(name string) Column { return Column{Name: name, Kind: KindFloat64} }

// Columns lists the Row fields in output order. Values returns them in the
// same order.
var Columns = []Column{
	{"run_number", KindUint64},
	{"event_number", KindUint64},
	{"n_jets", KindInt64},
	{"n_fat_jets", KindInt64},
	{"n_truth_taus", KindInt64},
	f("tau0_pt"), f("tau0_eta"), f("tau0_phi"),
	f("tau1_pt"), f("tau1_eta"), f("tau1_phi"),
	f("tau_vis0_pt"), f("tau_vis0_eta"), f("tau_vis0_phi"),
	f("tau_vis1_pt"), f("tau_vis1_eta"), f("tau_vis1_phi"),
	f("b0_pt"), f("b0_eta"), f("b0_phi"),
	f("b1_pt"), f("b1_eta"), f("b1_phi"),
	f("bjet0_pt"), f("bjet0_eta"), f("bjet0_phi"),
	f("bjet1_pt"), f("bjet1_eta"), f("bjet1_phi"),
	f("dibjet_pt"), f("dibjet_m"), f("dibjet_eta"), f("dibjet_phi"),
	f("dr_bb"),
	f("dr_bjetbjet"),
	f("dr_tautau"),
	f("dr_tauvistauvis"),
	f("dr_bb_tautau"),
	f("dr_bjetbjet_tauvistauvis"),
	f("dr_dibjet_tauvistauvis"),
	f("m_bb"),
	f("m_tautau"),
	f("m_bjetbjet"),
	f("m_tauvistauvis"),
	f("m_hh"),
	f("pt_bb"),
	f("pt_tautau"),
	f("mc_weight"),
	{"channel", KindString},
}

// Values returns the row's fields in Columns order. Each value is a uint64,
// int64, float64 or string matching the column kind.
func (r *Row) Values() []interface{} {
	return []interface{}{
		r.RunNumber,
		r.EventNumber,
		r.NJets,
		r.NFatJets,
		r.NTruthTaus,
		r.Tau0Pt, r.Tau0Eta, r.Tau0Phi,
		r.Tau1Pt, r.Tau1Eta, r.Tau1Phi,
		r.TauVis0Pt, r.TauVis0Eta, r.TauVis0Phi,
		r.TauVis1Pt, r.TauVis1Eta, r.TauVis1Phi,
		r.B0Pt, r.B0Eta, r.B0Phi,
		r.B1Pt, r.B1Eta, r.B1Phi,
		r.BJet0Pt, r.BJet0Eta, r.BJet0Phi,
		r.BJet1Pt, r.BJet1Eta, r.BJet1Phi,
		r.DiBJetPt, r.DiBJetM, r.DiBJetEta, r.DiBJetPhi,
		r.DRBB,
		r.DRBJetBJet,
		r.DRTauTau,
		r.DRTauVisTauVis,
		r.DRBBTauTau,
		r.DRBJetBJetTauVisTauVis,
		r.DRDiBJetTauVisTauVis,
		r.MBB,
		r.MTauTau,
		r.MBJetBJet,
		r.MTauVisTauVis,
		r.MHH,
		r.PtBB,
		r.PtTauTau,
		r.MCWeight,
		r.Channel.String(),
	}
}
