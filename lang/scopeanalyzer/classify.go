package scopeanalyzer

// classifyAndCollect assigns lifetime priorities (spec.md §4.4) and
// collects every variable of the scope tree into res, depth-first.
func (a *analyzer) classifyAndCollect(s *Scope, res *Result) {
	for _, v := range s.Variables {
		lifespan := 0
		if v.FirstUse >= 0 {
			lifespan = v.LastUse - v.FirstUse
		}
		switch {
		case lifespan < 10:
			v.Priority = PriorityShort
		case lifespan < 100:
			v.Priority = PriorityMedium
		default:
			v.Priority = PriorityLong
		}
		res.TotalVariables++
		if v.IsCaptured {
			res.CapturedVariables++
		}
	}
	for _, c := range s.Children {
		a.classifyAndCollect(c, res)
	}
}

// computeInterference builds the per-scope interference lists and lifts
// them into one global list (spec.md §4.4: "An interference matrix is
// built per scope and then lifted globally").
func (a *analyzer) computeInterference(res *Result) {
	var walk func(s *Scope)
	walk = func(s *Scope) {
		for i := 0; i < len(s.Variables); i++ {
			for j := i + 1; j < len(s.Variables); j++ {
				v1, v2 := s.Variables[i], s.Variables[j]
				if overlaps(v1, v2) {
					res.Interfering = append(res.Interfering, [2]*Variable{v1, v2})
				}
			}
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(res.Root)
}

// overlaps reports whether two used variables are live at the same time;
// a variable holds its value from its declaration point to its last use.
func overlaps(v1, v2 *Variable) bool {
	if v1.FirstUse < 0 || v2.FirstUse < 0 {
		return false
	}
	return v1.DeclarationPoint <= v2.LastUse && v2.DeclarationPoint <= v1.LastUse
}

// eliminateDead marks use_count==0, non-captured, non-escaping, simple-
// lifetime variables as dead (spec.md §4.4). Write-only variables are left
// alone (tracked separately via WriteCount, not deleted).
func (a *analyzer) eliminateDead(res *Result) {
	var walk func(s *Scope)
	walk = func(s *Scope) {
		for _, v := range s.Variables {
			if v.UseCount == 0 && v.WriteCount == 0 && !v.IsCaptured && !v.Escapes && !v.CrossesLoop && !v.IsLoopVar {
				v.IsDead = true
				res.DeadVariables++
			}
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(res.Root)
}

// validate checks the final counts against spec.md §4.4's validation
// rules, rolling back every dead-variable marking if any rule fails.
func (a *analyzer) validate(res *Result) bool {
	ok := res.DeadVariables <= res.TotalVariables &&
		res.CapturedVariables <= res.TotalVariables

	var walk func(s *Scope)
	walk = func(s *Scope) {
		for _, v := range s.Variables {
			if v.IsCaptured && !v.Escapes {
				ok = false
			}
			if v.IsDead && (v.UseCount != 0 || v.IsCaptured) {
				ok = false
			}
			if v.Reg > 255 {
				ok = false
			}
		}
		for _, c := range s.Children {
			walk(c)
		}
	}
	walk(res.Root)

	if !ok {
		rollback(res.Root)
		res.DeadVariables = 0
	}
	return ok
}

func rollback(s *Scope) {
	for _, v := range s.Variables {
		v.IsDead = false
	}
	for _, c := range s.Children {
		rollback(c)
	}
}
