package peptide

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bigbio/quantmsio-go/schema"
)

// siteMod is one modification attached to a peptide site.
type siteMod struct {
	name     string
	position string // "N-term.0", "C-term.<len+1>" or "<AA>.<i>" (1-based)
	order    int
}

// Parsed is the result of parsing a peptidoform string.
type Parsed struct {
	Sequence string
	mods     []siteMod
}

// CleanPeptidoform strips MaxQuant underscore delimiters and expands
// abbreviated modification codes to canonical names.
func CleanPeptidoform(peptidoform string) string {
	peptidoform = strings.Trim(peptidoform, "_")
	for short, full := range abbreviations {
		peptidoform = strings.ReplaceAll(peptidoform, "("+short+")", "("+full+")")
	}
	return peptidoform
}

// modName extracts the canonical name from a parenthesized modification
// token, dropping a trailing specificity group such as "Oxidation (M)".
func modName(token string) string {
	token = strings.TrimSpace(token)
	if i := strings.Index(token, " ("); i >= 0 {
		token = token[:i]
	}
	return token
}

// Parse parses a cleaned or raw peptidoform string. A parenthesized group
// before the first residue is an N-terminal modification; a group following
// a residue attaches to that residue; a group introduced by a trailing dot
// or dash is C-terminal.
func Parse(peptidoform string) (*Parsed, error) {
	cleaned := CleanPeptidoform(peptidoform)
	if cleaned == "" {
		return nil, fmt.Errorf("empty peptidoform")
	}

	var seq strings.Builder
	var mods []siteMod
	cterm := false

	runes := []rune(cleaned)
	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case r == '(':
			depth := 1
			j := i + 1
			for ; j < len(runes) && depth > 0; j++ {
				switch runes[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
			}
			if depth != 0 {
				return nil, fmt.Errorf("unbalanced parentheses in %q", peptidoform)
			}
			name := modName(string(runes[i+1 : j-1]))
			if name == "" {
				return nil, fmt.Errorf("empty modification in %q", peptidoform)
			}
			var position string
			switch {
			case cterm:
				position = "" // resolved after the full length is known
			case seq.Len() == 0:
				position = "N-term.0"
			default:
				s := seq.String()
				position = fmt.Sprintf("%c.%d", s[len(s)-1], len(s))
			}
			mods = append(mods, siteMod{name: name, position: position, order: len(mods)})
			i = j
		case r == '.' || r == '-':
			cterm = true
			i++
		case r >= 'A' && r <= 'Z':
			if _, ok := residueCompositions[r]; !ok {
				return nil, fmt.Errorf("unknown residue %q in %q", r, peptidoform)
			}
			seq.WriteRune(r)
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q in %q", r, peptidoform)
		}
	}

	if seq.Len() == 0 {
		return nil, fmt.Errorf("no residues in %q", peptidoform)
	}

	p := &Parsed{Sequence: seq.String(), mods: mods}
	for i := range p.mods {
		if p.mods[i].position == "" {
			p.mods[i].position = fmt.Sprintf("C-term.%d", len(p.Sequence)+1)
		}
	}
	return p, nil
}

// MonoisotopicMass returns the neutral monoisotopic mass of the peptidoform.
// Every attached modification must be known.
func (p *Parsed) MonoisotopicMass() (float64, error) {
	mass := water.Mass()
	for _, r := range p.Sequence {
		mass += residueCompositions[r].Mass()
	}
	for _, m := range p.mods {
		def, ok := LookupMod(m.name)
		if !ok {
			return 0, fmt.Errorf("unknown modification %q", m.name)
		}
		mass += def.Mass
	}
	return mass, nil
}

// MZ returns the mass to charge ratio for a charge state.
func (p *Parsed) MZ(charge int) (float64, error) {
	if charge <= 0 {
		return 0, fmt.Errorf("invalid charge %d", charge)
	}
	mass, err := p.MonoisotopicMass()
	if err != nil {
		return 0, err
	}
	return (mass + float64(charge)*ProtonMass) / float64(charge), nil
}

// Modifications groups the parsed site modifications by name, in order of
// first appearance, with per-site position labels. Unknown modification
// names get an empty accession.
func (p *Parsed) Modifications() []schema.Modification {
	if len(p.mods) == 0 {
		return nil
	}

	byName := make(map[string][]siteMod)
	var names []string
	for _, m := range p.mods {
		if _, seen := byName[m.name]; !seen {
			names = append(names, m.name)
		}
		byName[m.name] = append(byName[m.name], m)
	}

	out := make([]schema.Modification, 0, len(names))
	for _, name := range names {
		sites := byName[name]
		sort.Slice(sites, func(i, j int) bool { return sites[i].order < sites[j].order })
		mod := schema.Modification{Name: name}
		if def, ok := LookupMod(name); ok {
			mod.Accession = def.Accession
		}
		for _, s := range sites {
			mod.Positions = append(mod.Positions, schema.ModPosition{Position: s.position})
		}
		out = append(out, mod)
	}
	return out
}

// Cache memoizes parsed peptidoforms. It is not safe for concurrent use;
// each worker goroutine owns its own cache.
type Cache struct {
	parsed map[string]*Parsed
	failed map[string]bool
}

// NewCache creates an empty parse cache.
func NewCache() *Cache {
	return &Cache{
		parsed: make(map[string]*Parsed),
		failed: make(map[string]bool),
	}
}

// Parse parses a peptidoform through the cache. Failures are cached too so
// a malformed value repeated across rows is only parsed once.
func (c *Cache) Parse(peptidoform string) (*Parsed, error) {
	if p, ok := c.parsed[peptidoform]; ok {
		return p, nil
	}
	if c.failed[peptidoform] {
		return nil, fmt.Errorf("unparseable peptidoform %q", peptidoform)
	}
	p, err := Parse(peptidoform)
	if err != nil {
		c.failed[peptidoform] = true
		return nil, err
	}
	c.parsed[peptidoform] = p
	return p, nil
}

// CalculatedMZ computes the theoretical m/z for a peptidoform and charge,
// returning 0 when the peptidoform cannot be parsed or carries an unknown
// modification.
func (c *Cache) CalculatedMZ(peptidoform string, charge int) float32 {
	p, err := c.Parse(peptidoform)
	if err != nil {
		return 0
	}
	mz, err := p.MZ(charge)
	if err != nil {
		return 0
	}
	return float32(mz)
}

// Modifications parses a peptidoform and returns its grouped modifications,
// or nil when parsing fails.
func (c *Cache) Modifications(peptidoform string) []schema.Modification {
	p, err := c.Parse(peptidoform)
	if err != nil {
		return nil
	}
	return p.Modifications()
}
