package projector

import (
	"sort"

	"github.com/banshee-data/truthana/internal/pipeline"
	"github.com/banshee-data/truthana/internal/truth"
	"github.com/banshee-data/truthana/internal/units"
)

type object struct {
	full truth.FourMomentum
	vis  truth.FourMomentum
}

// byPt orders two objects so the leading one comes first.
func byPt(a, b object) (object, object) {
	if b.full.Pt() > a.full.Pt() {
		return b, a
	}
	return a, b
}

func kinematics(p truth.FourMomentum) (pt, eta, phi float64) {
	return units.ToGeV(p.Pt()), p.Eta(), p.Phi()
}

// leadingJets returns the selected jets sorted by descending pt.
func leadingJets(jets []*truth.Jet) []*truth.Jet {
	out := make([]*truth.Jet, len(jets))
	copy(out, jets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].P4.Pt() > out[j].P4.Pt()
	})
	return out
}

// Project builds the output row for an event that passed every stage.
// Leading objects are ordered by descending pt. Angular distances that need
// a missing object are Unset; missing kinematics are zero.
func Project(sel *pipeline.Selection) *Row {
	ev := sel.Event
	r := &Row{
		RunNumber:   ev.RunNumber,
		EventNumber: ev.EventNumber,
		NJets:       int64(len(sel.Jets)),
		NFatJets:    int64(len(sel.FatJets)),
		NTruthTaus:  int64(len(sel.TruthTaus)),
		MCWeight:    sel.Weight,
		Channel:     sel.Channel,
	}

	tau0, tau1 := byPt(object{sel.Tau0.P4, sel.Tau0Vis}, object{sel.Tau1.P4, sel.Tau1Vis})
	r.Tau0Pt, r.Tau0Eta, r.Tau0Phi = kinematics(tau0.full)
	r.Tau1Pt, r.Tau1Eta, r.Tau1Phi = kinematics(tau1.full)
	r.TauVis0Pt, r.TauVis0Eta, r.TauVis0Phi = kinematics(tau0.vis)
	r.TauVis1Pt, r.TauVis1Eta, r.TauVis1Phi = kinematics(tau1.vis)

	b0, b1 := byPt(object{full: sel.B0.P4}, object{full: sel.B1.P4})
	r.B0Pt, r.B0Eta, r.B0Phi = kinematics(b0.full)
	r.B1Pt, r.B1Eta, r.B1Phi = kinematics(b1.full)

	tautau := tau0.full.Add(tau1.full)
	vistau := tau0.vis.Add(tau1.vis)
	bb := b0.full.Add(b1.full)

	r.DRTauTau = tau0.full.DeltaR(tau1.full)
	r.DRTauVisTauVis = tau0.vis.DeltaR(tau1.vis)
	r.DRBB = b0.full.DeltaR(b1.full)
	r.DRBBTauTau = bb.DeltaR(tautau)

	r.MBB = units.ToGeV(bb.M())
	r.MTauTau = units.ToGeV(tautau.M())
	r.MTauVisTauVis = units.ToGeV(vistau.M())
	r.MHH = units.ToGeV(bb.Add(tautau).M())
	r.PtBB = units.ToGeV(bb.Pt())
	r.PtTauTau = units.ToGeV(tautau.Pt())

	r.DRBJetBJet = Unset
	r.DRBJetBJetTauVisTauVis = Unset
	jets := leadingJets(sel.Jets)
	if len(jets) >= 1 {
		r.BJet0Pt, r.BJet0Eta, r.BJet0Phi = kinematics(jets[0].P4)
	}
	if len(jets) >= 2 {
		r.BJet1Pt, r.BJet1Eta, r.BJet1Phi = kinematics(jets[1].P4)
		dijet := jets[0].P4.Add(jets[1].P4)
		r.DRBJetBJet = jets[0].P4.DeltaR(jets[1].P4)
		r.DRBJetBJetTauVisTauVis = dijet.DeltaR(vistau)
		r.MBJetBJet = units.ToGeV(dijet.M())
	}

	r.DRDiBJetTauVisTauVis = Unset
	if fat := leadingJets(sel.FatJets); len(fat) > 0 {
		r.DiBJetPt, r.DiBJetEta, r.DiBJetPhi = kinematics(fat[0].P4)
		r.DiBJetM = units.ToGeV(fat[0].P4.M())
		r.DRDiBJetTauVisTauVis = fat[0].P4.DeltaR(vistau)
	}

	return r
}
