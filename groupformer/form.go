package groupformer

import "sort"

// Former builds balanced groups from a registration book and roster
// projection (spec §4.G). It carries no state across calls.
type Former struct{}

// New constructs a stateless Former.
func New() *Former { return &Former{} }

// pool tracks which registrants have been consumed while preserving the
// caller's original insertion order, the tie-break of last resort (spec
// §4.G "Determinism: ... stable insertion order otherwise").
type pool struct {
	order []int64
	byID  map[int64]Registrant
	used  map[int64]bool
}

func newPool(registrants []Registrant) *pool {
	p := &pool{
		order: make([]int64, 0, len(registrants)),
		byID:  make(map[int64]Registrant, len(registrants)),
		used:  make(map[int64]bool, len(registrants)),
	}
	for _, r := range registrants {
		p.order = append(p.order, r.MemberID)
		p.byID[r.MemberID] = r
	}
	return p
}

func (p *pool) remaining() []Registrant {
	out := make([]Registrant, 0, len(p.order))
	for _, id := range p.order {
		if !p.used[id] {
			out = append(out, p.byID[id])
		}
	}
	return out
}

func (p *pool) take(id int64) { p.used[id] = true }
func (p *pool) untake(id int64) { p.used[id] = false }

// highestGSFirst sorts a bucket by descending GS, stable so original
// insertion order breaks ties (spec §4.G determinism rule).
func highestGSFirst(rs []Registrant) {
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].GS > rs[j].GS })
}

func filterClass(rs []Registrant, c Class) []Registrant {
	var out []Registrant
	for _, r := range rs {
		if r.Class == c {
			out = append(out, r)
		}
	}
	return out
}

// Form runs the full group-formation pipeline (spec §4.G stages 1-6).
func (f *Former) Form(registrants []Registrant, staticGroups []StaticGroup) []Group {
	p := newPool(registrants)

	var gsValues []int
	for _, r := range registrants {
		if r.GS > 0 {
			gsValues = append(gsValues, r.GS)
		}
	}
	bands := computeGSBands(gsValues)

	var groups []Group
	groups = append(groups, f.fixateStaticGroups(p, staticGroups, bands)...)
	groups = append(groups, f.fillBands(p, bands)...)
	f.placeTentatives(p, groups)
	groups = append(groups, f.residualGroups(p)...)
	groups = f.redistribute(p, groups)

	return groups
}

// fixateStaticGroups implements stage 2: a configured static group whose
// present-count equals size or size-1 is emitted as a group anchor, then
// topped up from the remaining pool.
func (f *Former) fixateStaticGroups(p *pool, staticGroups []StaticGroup, bands []GSBand) []Group {
	var groups []Group

	for _, sg := range staticGroups {
		size := len(sg.MemberIDs)
		if size == 0 {
			continue
		}

		var anchor []GroupMember
		presentIDs := make(map[int64]bool, size)
		for _, id := range sg.MemberIDs {
			if _, ok := p.byID[id]; !ok || p.used[id] {
				continue
			}
			presentIDs[id] = true
		}
		present := len(presentIDs)
		if present != size && present != size-1 {
			continue
		}

		for id := range presentIDs {
			r := p.byID[id]
			anchor = append(anchor, GroupMember{MemberID: r.MemberID, Class: r.Class, GS: r.GS, Tentative: r.Tentative})
			p.take(id)
		}

		targetBand := 0
		if len(anchor) > 0 {
			total := 0
			for _, m := range anchor {
				total += m.GS
			}
			targetBand = bandIndex(total/len(anchor), bands)
		}

		missing := essentialsFirst(anchor)
		slots := maxGroupSize - len(anchor)
		for slots > 0 && len(missing) > 0 {
			target := missing[0]
			candidate, found := bestCandidate(p, target, targetBand, bands)
			if !found {
				missing = missing[1:]
				continue
			}
			anchor = append(anchor, GroupMember{MemberID: candidate.MemberID, Class: candidate.Class, GS: candidate.GS, Tentative: candidate.Tentative})
			p.take(candidate.MemberID)
			slots--
			missing = missing[1:]
		}
		// Any remaining slots: fill with the best-scoring candidate of any class.
		for slots > 0 {
			candidate, found := bestCandidate(p, ClassUnknown, targetBand, bands)
			if !found {
				break
			}
			anchor = append(anchor, GroupMember{MemberID: candidate.MemberID, Class: candidate.Class, GS: candidate.GS, Tentative: candidate.Tentative})
			p.take(candidate.MemberID)
			slots--
		}

		groups = append(groups, Group{Members: anchor})
	}

	return groups
}

// essentialsFirst lists the classes absent from anchor, Tank and Healer
// ahead of the rest (spec §4.G stage 2 "essential classes Tank, Healer
// first").
func essentialsFirst(anchor []GroupMember) []Class {
	have := make(map[Class]bool, len(anchor))
	for _, m := range anchor {
		have[m.Class] = true
	}
	var essential, rest []Class
	for _, c := range []Class{ClassTank, ClassHealer} {
		if !have[c] {
			essential = append(essential, c)
		}
	}
	for _, c := range []Class{ClassMeleeDPS, ClassRangedDPS, ClassFlanker} {
		if !have[c] {
			rest = append(rest, c)
		}
	}
	return append(essential, rest...)
}

// bestCandidate finds the highest-scoring unused registrant for target
// class/band, falling back to the highest scorer of any class when target
// is ClassUnknown.
func bestCandidate(p *pool, target Class, targetBand int, bands []GSBand) (Registrant, bool) {
	best := Registrant{}
	bestScore := -1.0
	found := false
	for _, r := range p.remaining() {
		var score float64
		if target == ClassUnknown {
			score = memberScore(r, r.Class, targetBand, bands)
		} else {
			if r.Class != target {
				continue
			}
			score = memberScore(r, target, targetBand, bands)
		}
		if score > bestScore {
			bestScore = score
			best = r
			found = true
		}
	}
	return best, found
}

// fillBands implements stage 3: per band, high-GS-first, flanker-only
// groups then tank+healer-seeded groups.
func (f *Former) fillBands(p *pool, bands []GSBand) []Group {
	var groups []Group

	order := make([]int, len(bands))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return bands[order[i]].Max > bands[order[j]].Max })

	for _, bandIdx := range order {
		inBand := func() []Registrant {
			var out []Registrant
			for _, r := range p.remaining() {
				if bandIndex(r.GS, bands) == bandIdx {
					out = append(out, r)
				}
			}
			return out
		}

		flankers := filterClass(inBand(), ClassFlanker)
		highestGSFirst(flankers)
		for len(flankers) >= 5 {
			n := 6
			if len(flankers) < 6 {
				n = 5
			}
			var members []GroupMember
			for i := 0; i < n && i < len(flankers); i++ {
				r := flankers[i]
				members = append(members, GroupMember{MemberID: r.MemberID, Class: r.Class, GS: r.GS, Tentative: r.Tentative})
				p.take(r.MemberID)
			}
			groups = append(groups, Group{Members: members})
			flankers = filterClass(inBand(), ClassFlanker)
			highestGSFirst(flankers)
		}

		for {
			current := inBand()
			tanks := filterClass(current, ClassTank)
			healers := filterClass(current, ClassHealer)
			if len(tanks) < 1 || len(healers) < 1 {
				break
			}
			highestGSFirst(tanks)
			highestGSFirst(healers)

			var picked []GroupMember
			var pickedIDs []int64
			for i := 0; i < 2 && i < len(tanks); i++ {
				picked = append(picked, asMember(tanks[i]))
				pickedIDs = append(pickedIDs, tanks[i].MemberID)
			}
			for i := 0; i < 2 && i < len(healers); i++ {
				picked = append(picked, asMember(healers[i]))
				pickedIDs = append(pickedIDs, healers[i].MemberID)
			}
			for _, id := range pickedIDs {
				p.take(id)
			}

			for _, dpsClass := range []Class{ClassMeleeDPS, ClassRangedDPS, ClassFlanker} {
				if len(picked) >= maxGroupSize {
					break
				}
				rest := filterClass(inBand(), dpsClass)
				highestGSFirst(rest)
				for _, r := range rest {
					if len(picked) >= maxGroupSize {
						break
					}
					picked = append(picked, asMember(r))
					pickedIDs = append(pickedIDs, r.MemberID)
					p.take(r.MemberID)
				}
			}

			if len(picked) >= minGroupSize {
				groups = append(groups, Group{Members: picked})
			} else {
				for _, id := range pickedIDs {
					p.untake(id)
				}
				break
			}
		}
	}

	return groups
}

func asMember(r Registrant) GroupMember {
	return GroupMember{MemberID: r.MemberID, Class: r.Class, GS: r.GS, Tentative: r.Tentative}
}

// placeTentatives implements stage 4: each remaining tentative registrant
// is placed into the best existing group with a free slot, scored against
// the group's average GS.
func (f *Former) placeTentatives(p *pool, groups []Group) {
	for _, r := range p.remaining() {
		if !r.Tentative {
			continue
		}
		bestIdx := -1
		bestDelta := -1.0
		for i := range groups {
			if len(groups[i].Members) >= maxGroupSize {
				continue
			}
			delta := groups[i].averageGS() - float64(r.GS)
			if delta < 0 {
				delta = -delta
			}
			if bestIdx == -1 || delta < bestDelta {
				bestIdx = i
				bestDelta = delta
			}
		}
		if bestIdx >= 0 {
			groups[bestIdx].Members = append(groups[bestIdx].Members, asMember(r))
			p.take(r.MemberID)
		}
	}
}

// residualGroups implements stage 5: form groups of up to 6 from any
// remaining members while the remaining count is >= 4.
func (f *Former) residualGroups(p *pool) []Group {
	var groups []Group
	rest := p.remaining()
	highestGSFirst(rest)

	for len(rest) >= minGroupSize {
		n := maxGroupSize
		if len(rest) < n {
			n = len(rest)
		}
		var members []GroupMember
		for i := 0; i < n; i++ {
			members = append(members, asMember(rest[i]))
			p.take(rest[i].MemberID)
		}
		groups = append(groups, Group{Members: members})
		rest = p.remaining()
		highestGSFirst(rest)
	}
	return groups
}

// redistribute implements stage 6: push any still-remaining members into a
// group with a free slot; a truly isolated remainder becomes a final
// partial group.
func (f *Former) redistribute(p *pool, groups []Group) []Group {
	rest := p.remaining()
	highestGSFirst(rest)

	var leftover []GroupMember
	for _, r := range rest {
		placed := false
		for i := range groups {
			if len(groups[i].Members) < maxGroupSize {
				groups[i].Members = append(groups[i].Members, asMember(r))
				p.take(r.MemberID)
				placed = true
				break
			}
		}
		if !placed {
			leftover = append(leftover, asMember(r))
			p.take(r.MemberID)
		}
	}
	if len(leftover) > 0 {
		groups = append(groups, Group{Members: leftover})
	}
	return groups
}
