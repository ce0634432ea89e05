package truth

import "math"

// etaAlongBeam is reported as the pseudorapidity of a vector with zero
// transverse momentum, matching the usual Lorentz-vector convention.
const etaAlongBeam = 1e10

// FourMomentum is an energy-momentum vector in Cartesian components.
// All components are in the native energy unit (MeV).
type FourMomentum struct {
	Px float64 `json:"px"`
	Py float64 `json:"py"`
	Pz float64 `json:"pz"`
	E  float64 `json:"e"`
}

// PtEtaPhiM builds a four-momentum from collider coordinates and a mass.
func PtEtaPhiM(pt, eta, phi, m float64) FourMomentum {
	pt = math.Abs(pt)
	px := pt * math.Cos(phi)
	py := pt * math.Sin(phi)
	pz := pt * math.Sinh(eta)
	p := pt * math.Cosh(eta)
	var e float64
	if m >= 0 {
		e = math.Sqrt(p*p + m*m)
	} else {
		e = math.Sqrt(math.Max(p*p-m*m, 0))
	}
	return FourMomentum{Px: px, Py: py, Pz: pz, E: e}
}

// Add returns p + q.
func (p FourMomentum) Add(q FourMomentum) FourMomentum {
	return FourMomentum{Px: p.Px + q.Px, Py: p.Py + q.Py, Pz: p.Pz + q.Pz, E: p.E + q.E}
}

// Sub returns p - q.
func (p FourMomentum) Sub(q FourMomentum) FourMomentum {
	return FourMomentum{Px: p.Px - q.Px, Py: p.Py - q.Py, Pz: p.Pz - q.Pz, E: p.E - q.E}
}

// Pt is the transverse momentum.
func (p FourMomentum) Pt() float64 {
	return math.Hypot(p.Px, p.Py)
}

// P is the magnitude of the three-momentum.
func (p FourMomentum) P() float64 {
	return math.Sqrt(p.Px*p.Px + p.Py*p.Py + p.Pz*p.Pz)
}

// Eta is the pseudorapidity. Vectors along the beam axis report ±1e10.
func (p FourMomentum) Eta() float64 {
	pt := p.Pt()
	if pt == 0 {
		switch {
		case p.Pz > 0:
			return etaAlongBeam
		case p.Pz < 0:
			return -etaAlongBeam
		default:
			return 0
		}
	}
	return math.Asinh(p.Pz / pt)
}

// Phi is the azimuthal angle in (-π, π].
func (p FourMomentum) Phi() float64 {
	if p.Px == 0 && p.Py == 0 {
		return 0
	}
	return math.Atan2(p.Py, p.Px)
}

// massNoise bounds the rounding left in E²-p² relative to E², so that
// light-like vectors built from collider coordinates come back massless.
const massNoise = 64 * 0x1p-52

// M2 is the squared invariant mass. Values within rounding of zero
// relative to E² are reported as 0.
func (p FourMomentum) M2() float64 {
	mag := p.P()
	m2 := (p.E - mag) * (p.E + mag)
	if math.Abs(m2) <= massNoise*p.E*p.E {
		return 0
	}
	return m2
}

// M is the invariant mass. Space-like vectors return -sqrt(-M2).
func (p FourMomentum) M() float64 {
	m2 := p.M2()
	if m2 < 0 {
		return -math.Sqrt(-m2)
	}
	return math.Sqrt(m2)
}

// DeltaPhi returns the azimuthal separation wrapped into [-π, π).
func (p FourMomentum) DeltaPhi(q FourMomentum) float64 {
	return wrapPhi(p.Phi() - q.Phi())
}

// DeltaR returns the angular distance sqrt(Δη² + Δφ²).
func (p FourMomentum) DeltaR(q FourMomentum) float64 {
	return math.Hypot(p.Eta()-q.Eta(), p.DeltaPhi(q))
}

func wrapPhi(dphi float64) float64 {
	for dphi >= math.Pi {
		dphi -= 2 * math.Pi
	}
	for dphi < -math.Pi {
		dphi += 2 * math.Pi
	}
	return dphi
}
