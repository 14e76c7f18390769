package groupformer

// classScore implements spec §4.G stage 2's class-match component: 0.7
// exact, 0.5 DPS-family match, 0.3 other DPS/flanker class, else 0.
func classScore(memberClass, targetClass Class) float64 {
	switch {
	case memberClass == targetClass:
		return 0.7
	case isDPSFamily(targetClass) && isDPSFamily(memberClass):
		return 0.5
	case isDPSFamily(memberClass) || memberClass == ClassFlanker:
		return 0.3
	default:
		return 0
	}
}

// gsBandScore implements the GS band match component: 0.2 same band, 0.1
// adjacent band, else 0.
func gsBandScore(memberBand, targetBand int) float64 {
	diff := memberBand - targetBand
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 0.2
	case 1:
		return 0.1
	default:
		return 0
	}
}

// tentativePenalty is -0.05 for tentative registrants, 0 for present ones
// (spec §4.G stage 2 "tentative penalty").
func tentativePenalty(tentative bool) float64 {
	if tentative {
		return -0.05
	}
	return 0
}

// memberScore scores a candidate registrant against an anchor's target
// class and GS band, used by static-group fixation (stage 2).
func memberScore(r Registrant, targetClass Class, targetBand int, bands []GSBand) float64 {
	return classScore(r.Class, targetClass) + gsBandScore(bandIndex(r.GS, bands), targetBand) + tentativePenalty(r.Tentative)
}
