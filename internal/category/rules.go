package category

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/tech6-code/DocuFlow-AI-sub007/internal/domain"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// KeywordRule maps account name fragments to a category.
type KeywordRule struct {
	Category domain.Category `yaml:"category"`
	Contains []string        `yaml:"contains"`
}

// Rules is the vocabulary the normalizer works from.
type Rules struct {
	Default       domain.Category            `yaml:"default"`
	Headers       map[string]domain.Category `yaml:"headers"`
	Labels        map[string]domain.Category `yaml:"labels"`
	TableHeaders  []string                   `yaml:"table_headers"`
	TotalPatterns []string                   `yaml:"total_patterns"`
	Keywords      []KeywordRule              `yaml:"keywords"`

	headerRe     *regexp.Regexp
	tableHeaders map[string]struct{}
}

// DefaultRules returns the embedded rule table.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("category: embedded rules: %v", err))
	}
	return r
}

// LoadRules reads a rule table from path. An empty path selects the
// embedded table.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("category.LoadRules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("category.ParseRules: %w", err)
	}
	if r.Default == "" {
		r.Default = domain.CategoryAssets
	}
	if !r.Default.Valid() {
		return nil, fmt.Errorf("category.ParseRules: unknown default category %q", r.Default)
	}
	for token, c := range r.Headers {
		if !c.Valid() {
			return nil, fmt.Errorf("category.ParseRules: header %q maps to unknown category %q", token, c)
		}
	}
	for label, c := range r.Labels {
		if !c.Valid() {
			return nil, fmt.Errorf("category.ParseRules: label %q maps to unknown category %q", label, c)
		}
	}
	for i, k := range r.Keywords {
		if !k.Category.Valid() {
			return nil, fmt.Errorf("category.ParseRules: keyword group %d has unknown category %q", i, k.Category)
		}
	}

	r.compile()
	return &r, nil
}

func (r *Rules) compile() {
	r.Headers = cleanKeys(r.Headers)
	r.Labels = cleanKeys(r.Labels)

	tokens := make([]string, 0, len(r.Headers))
	for t := range r.Headers {
		tokens = append(tokens, regexp.QuoteMeta(t))
	}
	// Longest first so "expenses" is preferred over "expense".
	sort.Slice(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })
	if len(tokens) > 0 {
		r.headerRe = regexp.MustCompile(`^(` + strings.Join(tokens, "|") + `)(\s+in\s+\w+)?$`)
	}

	r.tableHeaders = make(map[string]struct{}, len(r.TableHeaders))
	for _, h := range r.TableHeaders {
		r.tableHeaders[clean(h)] = struct{}{}
	}
}

// Header reports whether account is a section header row and which
// category it opens.
func (r *Rules) Header(account string) (domain.Category, bool) {
	if r.headerRe == nil {
		return "", false
	}
	m := r.headerRe.FindStringSubmatch(clean(account))
	if m == nil {
		return "", false
	}
	return r.Headers[m[1]], true
}

// Infer applies the keyword rules to account. matched is false when the
// default category was returned because no rule applied.
func (r *Rules) Infer(account string) (c domain.Category, matched bool) {
	name := clean(account)
	for _, group := range r.Keywords {
		for _, fragment := range group.Contains {
			if hasWordPrefix(name, clean(fragment)) {
				return group.Category, true
			}
		}
	}
	return r.Default, false
}

// hasWordPrefix reports whether fragment occurs in name starting at a word
// boundary, so "rent" matches "Rent Expense" and "rental" but not "current".
func hasWordPrefix(name, fragment string) bool {
	if fragment == "" {
		return false
	}
	for from := 0; from <= len(name)-len(fragment); {
		i := strings.Index(name[from:], fragment)
		if i < 0 {
			return false
		}
		i += from
		if i == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(name[:i])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		_, size := utf8.DecodeRuneInString(name[i:])
		from = i + size
	}
	return false
}

// Label maps a free-form category label onto the taxonomy.
func (r *Rules) Label(label string) (domain.Category, bool) {
	l := clean(label)
	if l == "" {
		return "", false
	}
	for _, c := range domain.Categories {
		if strings.EqualFold(l, string(c)) {
			return c, true
		}
	}
	if c, ok := r.Labels[l]; ok {
		return c, true
	}
	return "", false
}

// IsTableHeader reports whether account is a column caption.
func (r *Rules) IsTableHeader(account string) bool {
	_, ok := r.tableHeaders[clean(account)]
	return ok
}

// IsTotal reports whether account names a summary row.
func (r *Rules) IsTotal(account string) bool {
	name := clean(account)
	for _, p := range r.TotalPatterns {
		if p != "" && strings.Contains(name, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func cleanKeys(m map[string]domain.Category) map[string]domain.Category {
	out := make(map[string]domain.Category, len(m))
	for k, v := range m {
		out[clean(k)] = v
	}
	return out
}

// clean lowercases, trims and collapses inner whitespace.
func clean(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
