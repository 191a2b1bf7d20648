package reconcile

import (
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/garyjia/workflow-reconciler/internal/domain/entity"
)

const (
	maxSuggestions     = 3
	maxSuggestDistance = 3
)

// NormalizeName folds accents, lowercases, replaces punctuation with spaces and
// collapses whitespace
func NormalizeName(s string) string {
	// Transformers carry state, so each call builds its own chain.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeEmployeeNumber uppercases and strips whitespace and dashes. All-digit
// numbers lose their leading zeros.
func NormalizeEmployeeNumber(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if unicode.IsSpace(r) || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	if out == "" || strings.IndexFunc(out, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return out
	}
	out = strings.TrimLeft(out, "0")
	if out == "" {
		return "0"
	}
	return out
}

// RequesterMatch is a resolved requester
type RequesterMatch struct {
	EmployeeID   int64
	UserID       int64
	DepartmentID *int64
}

// RequesterResolver matches requester employee numbers against the company's employees
type RequesterResolver struct {
	byNumber map[string][]*entity.EmployeeWithAccount
}

// NewRequesterResolver indexes requester candidates by normalized employee number
func NewRequesterResolver(candidates []*entity.EmployeeWithAccount) *RequesterResolver {
	r := &RequesterResolver{byNumber: make(map[string][]*entity.EmployeeWithAccount)}
	seen := make(map[int64]bool, len(candidates))
	for _, c := range candidates {
		if c == nil || seen[c.Employee.ID] {
			continue
		}
		key := NormalizeEmployeeNumber(c.Employee.EmployeeNumber)
		if key == "" {
			continue
		}
		seen[c.Employee.ID] = true
		r.byNumber[key] = append(r.byNumber[key], c)
	}
	return r
}

// Resolve returns the match or an unmatched reason
func (r *RequesterResolver) Resolve(employeeNumber string) (*RequesterMatch, string) {
	key := NormalizeEmployeeNumber(employeeNumber)
	if key == "" {
		return nil, ReasonRequesterEmployeeNumberMissing
	}

	matches := r.byNumber[key]
	switch {
	case len(matches) == 0:
		return nil, ReasonRequesterNotFound
	case len(matches) > 1:
		return nil, ReasonAmbiguousRequester
	}

	m := matches[0]
	if m.AccountID == nil {
		return nil, ReasonRequesterHasNoLinkedUser
	}
	return &RequesterMatch{
		EmployeeID:   m.Employee.ID,
		UserID:       *m.AccountID,
		DepartmentID: m.Employee.DepartmentID,
	}, ""
}

// ApproverResolver matches approver identities against workflow-capable accounts
type ApproverResolver struct {
	byNumber     map[string][]int64
	byName       map[string][]int64
	byFirstToken map[string][]int64
}

// NewApproverResolver indexes workflow accounts by employee number and by name
func NewApproverResolver(accounts []*entity.WorkflowAccount) *ApproverResolver {
	r := &ApproverResolver{
		byNumber:     make(map[string][]int64),
		byName:       make(map[string][]int64),
		byFirstToken: make(map[string][]int64),
	}
	seen := make(map[int64]bool, len(accounts))
	for _, a := range accounts {
		if a == nil || a.Employee == nil || seen[a.Account.ID] {
			continue
		}
		seen[a.Account.ID] = true
		id := a.Account.ID

		if key := NormalizeEmployeeNumber(a.Employee.EmployeeNumber); key != "" {
			r.byNumber[key] = append(r.byNumber[key], id)
		}
		first := NormalizeName(a.Employee.FirstName)
		last := NormalizeName(a.Employee.LastName)
		if first == "" || last == "" {
			continue
		}
		r.byName[nameKey(first, last)] = append(r.byName[nameKey(first, last)], id)
		if token := strings.Fields(first)[0]; token != first {
			r.byFirstToken[nameKey(token, last)] = append(r.byFirstToken[nameKey(token, last)], id)
		}
	}
	return r
}

// Resolve returns the approver's account id. The employee number tier runs first;
// the name tier is only consulted when it yields no candidate.
// On failure the returned string is one of the Approver* outcomes.
func (r *ApproverResolver) Resolve(employeeNumber, name string) (int64, string) {
	numberKey := NormalizeEmployeeNumber(employeeNumber)
	nameGiven := NormalizeName(name) != ""
	if numberKey == "" && !nameGiven {
		return 0, ApproverIdentityMissing
	}

	if numberKey != "" {
		matches := r.byNumber[numberKey]
		switch {
		case len(matches) == 1:
			return matches[0], ""
		case len(matches) > 1:
			return 0, ApproverAmbiguousEmployeeNumber
		}
	}
	if !nameGiven {
		return 0, ApproverNotFound
	}

	matches := r.matchName(name)
	switch {
	case len(matches) == 1:
		return matches[0], ""
	case len(matches) > 1:
		return 0, ApproverAmbiguousName
	}
	return 0, ApproverNotFound
}

func (r *ApproverResolver) matchName(raw string) []int64 {
	splits := nameSplits(raw)
	if len(splits) == 0 {
		return nil
	}
	if ids := r.lookupSplits(r.byName, splits); len(ids) > 0 {
		return ids
	}
	return r.lookupSplits(r.byFirstToken, splits)
}

func (r *ApproverResolver) lookupSplits(index map[string][]int64, splits [][2]string) []int64 {
	var out []int64
	seen := make(map[int64]bool)
	for _, s := range splits {
		for _, id := range index[nameKey(s[0], s[1])] {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// nameSplits returns candidate (first, last) pairs for a free-text name.
// "Last, First" is split on the comma; otherwise every token boundary is tried.
// Each variant is retried without single-letter initials.
func nameSplits(raw string) [][2]string {
	var out [][2]string
	add := func(first, last []string) {
		if len(first) == 0 || len(last) == 0 {
			return
		}
		out = append(out, [2]string{strings.Join(first, " "), strings.Join(last, " ")})
	}

	variants := func(tokens []string) [][]string {
		v := [][]string{tokens}
		if stripped := withoutInitials(tokens); len(stripped) != len(tokens) {
			v = append(v, stripped)
		}
		return v
	}

	if before, after, ok := strings.Cut(raw, ","); ok {
		last := strings.Fields(NormalizeName(before))
		for _, first := range variants(strings.Fields(NormalizeName(after))) {
			add(first, last)
			if len(first) > 1 {
				add(first[:1], last)
			}
		}
		return out
	}

	for _, tokens := range variants(strings.Fields(NormalizeName(raw))) {
		for i := 1; i < len(tokens); i++ {
			add(tokens[:i], tokens[i:])
		}
	}
	return out
}

func withoutInitials(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) > 1 {
			out = append(out, t)
		}
	}
	return out
}

func nameKey(first, last string) string {
	return first + "|" + last
}

// DepartmentResolver matches department hints against active departments
type DepartmentResolver struct {
	byID   map[int64]*entity.Department
	byCode map[string][]*entity.Department
	byName map[string][]*entity.Department
	all    []*entity.Department
}

// NewDepartmentResolver indexes departments by id, normalized code and normalized name
func NewDepartmentResolver(departments []*entity.Department) *DepartmentResolver {
	r := &DepartmentResolver{
		byID:   make(map[int64]*entity.Department, len(departments)),
		byCode: make(map[string][]*entity.Department),
		byName: make(map[string][]*entity.Department),
	}
	for _, d := range departments {
		if d == nil {
			continue
		}
		if _, dup := r.byID[d.ID]; dup {
			continue
		}
		r.byID[d.ID] = d
		r.all = append(r.all, d)
		if key := NormalizeName(d.Code); key != "" {
			r.byCode[key] = append(r.byCode[key], d)
		}
		if key := NormalizeName(d.Name); key != "" {
			r.byName[key] = append(r.byName[key], d)
		}
	}
	return r
}

// ResolveByID resolves a department by canonical id, as supplied by an override
func (r *DepartmentResolver) ResolveByID(id int64) (*entity.Department, string) {
	if d, ok := r.byID[id]; ok {
		return d, ""
	}
	return nil, ReasonDepartmentOverrideNotFound
}

// Resolve matches by code first, then by name. A name that matches nothing is
// also tried as a code, since older exports put the code in the name column.
func (r *DepartmentResolver) Resolve(code, name string) (*entity.Department, string) {
	if key := NormalizeName(code); key != "" {
		switch matches := r.byCode[key]; {
		case len(matches) == 1:
			return matches[0], ""
		case len(matches) > 1:
			return nil, ReasonAmbiguousDepartmentCode
		}
	}

	key := NormalizeName(name)
	if key == "" {
		return nil, ReasonDepartmentNotFound
	}
	switch matches := r.byName[key]; {
	case len(matches) == 1:
		return matches[0], ""
	case len(matches) > 1:
		return nil, ReasonAmbiguousDepartmentName
	}
	if matches := r.byCode[key]; len(matches) == 1 {
		return matches[0], ""
	}
	return nil, ReasonDepartmentNotFound
}

// Suggest returns up to three "CODE - Name" labels of departments whose code or
// name is within a small edit distance of the hints
func (r *DepartmentResolver) Suggest(code, name string) []string {
	var hints [][]rune
	for _, h := range []string{code, name} {
		if key := NormalizeName(h); key != "" {
			hints = append(hints, []rune(key))
		}
	}
	if len(hints) == 0 {
		return nil
	}

	type scored struct {
		dept     *entity.Department
		distance int
	}
	var candidates []scored
	for _, d := range r.all {
		best := -1
		for _, target := range []string{NormalizeName(d.Code), NormalizeName(d.Name)} {
			if target == "" {
				continue
			}
			for _, h := range hints {
				dist := levenshtein.DistanceForStrings(h, []rune(target), levenshtein.DefaultOptions)
				if best < 0 || dist < best {
					best = dist
				}
			}
		}
		if best >= 0 && best <= maxSuggestDistance {
			candidates = append(candidates, scored{dept: d, distance: best})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].dept.Name < candidates[j].dept.Name
	})

	out := make([]string, 0, maxSuggestions)
	for _, c := range candidates {
		if len(out) == maxSuggestions {
			break
		}
		out = append(out, c.dept.Code+" - "+c.dept.Name)
	}
	return out
}
