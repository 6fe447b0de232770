package dart

import (
	"encoding/xml"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Corp is one company in the OpenDART registry.
type Corp struct {
	Code        string `xml:"corp_code" json:"corpCode"`
	Name        string `xml:"corp_name" json:"corpName"`
	EnglishName string `xml:"corp_eng_name" json:"corpEngName,omitempty"`
	StockCode   string `xml:"stock_code" json:"stockCode,omitempty"` // blank for unlisted companies
	ModifyDate  string `xml:"modify_date" json:"modifyDate"`
}

// Listed reports whether the company has a stock code.
func (c Corp) Listed() bool {
	return strings.TrimSpace(c.StockCode) != ""
}

type corpCodeFile struct {
	List []Corp `xml:"list"`
}

// CorpRegistry resolves company names and stock codes to DART corp codes.
type CorpRegistry struct {
	corps   []Corp
	byCode  map[string]int
	byStock map[string]int
	byName  map[string][]int // normalised name -> indexes
}

// ParseCorpCodes reads CORPCODE.xml.
func ParseCorpCodes(r io.Reader) (*CorpRegistry, error) {
	var file corpCodeFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, eris.Wrap(err, "dart: parse corp codes")
	}
	return NewCorpRegistry(file.List), nil
}

// NewCorpRegistry indexes a list of companies.
func NewCorpRegistry(corps []Corp) *CorpRegistry {
	reg := &CorpRegistry{
		corps:   make([]Corp, 0, len(corps)),
		byCode:  make(map[string]int),
		byStock: make(map[string]int),
		byName:  make(map[string][]int),
	}
	for _, c := range corps {
		c.Code = strings.TrimSpace(c.Code)
		c.Name = CleanExtractedText(c.Name)
		c.EnglishName = CleanExtractedText(c.EnglishName)
		c.StockCode = strings.TrimSpace(c.StockCode)
		if c.Code == "" {
			continue
		}

		i := len(reg.corps)
		reg.corps = append(reg.corps, c)
		reg.byCode[c.Code] = i
		if c.StockCode != "" {
			reg.byStock[c.StockCode] = i
		}
		nameKey := normalizeAccountName(c.Name)
		if nameKey != "" {
			reg.byName[nameKey] = append(reg.byName[nameKey], i)
		}
		if engKey := normalizeAccountName(c.EnglishName); engKey != "" && engKey != nameKey {
			reg.byName[engKey] = append(reg.byName[engKey], i)
		}
	}
	return reg
}

// Len returns the number of companies in the registry.
func (r *CorpRegistry) Len() int {
	return len(r.corps)
}

// Lookup resolves an 8-digit corp code, a 6-digit stock code or an exact
// company name (Korean or English, ignoring case, spacing and punctuation).
// When several companies share a name the listed one wins.
func (r *CorpRegistry) Lookup(query string) (Corp, bool) {
	query = strings.TrimSpace(query)
	if i, ok := r.byCode[query]; ok {
		return r.corps[i], true
	}
	if i, ok := r.byStock[query]; ok {
		return r.corps[i], true
	}

	matches := r.byName[normalizeAccountName(query)]
	if len(matches) == 0 {
		return Corp{}, false
	}
	best := r.corps[matches[0]]
	for _, i := range matches[1:] {
		if !best.Listed() && r.corps[i].Listed() {
			best = r.corps[i]
		}
	}
	return best, true
}

// Search returns companies whose name contains fragment, listed companies
// first and then by name.
func (r *CorpRegistry) Search(fragment string) []Corp {
	key := normalizeAccountName(fragment)
	if key == "" {
		return nil
	}

	var out []Corp
	for _, c := range r.corps {
		if strings.Contains(normalizeAccountName(c.Name), key) ||
			strings.Contains(normalizeAccountName(c.EnglishName), key) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Listed() != out[j].Listed() {
			return out[i].Listed()
		}
		return out[i].Name < out[j].Name
	})
	return out
}
