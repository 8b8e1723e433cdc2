// Package scale implements the chord-follow scale detector (spec.md
// §4.5): a pitch-class histogram matched against 15 scale templates
// across 12 roots, grounded on original_source/src/dsp/scale.c.
package scale

// Template is a named interval set, listed as semitone offsets from the
// root (0 = root); templateMask turns it into a 12-bit mask for a given root.
type Template struct {
	Name      string
	Intervals []int // scale degrees, 0-based semitones from root
}

var Templates = []Template{
	{"MinorPentatonic", []int{0, 3, 5, 7, 10}},
	{"MajorPentatonic", []int{0, 2, 4, 7, 9}},
	{"Blues", []int{0, 3, 5, 6, 7, 10}},
	{"WholeTone", []int{0, 2, 4, 6, 8, 10}},
	{"Major", []int{0, 2, 4, 5, 7, 9, 11}},
	{"NaturalMinor", []int{0, 2, 3, 5, 7, 8, 10}},
	{"Dorian", []int{0, 2, 3, 5, 7, 9, 10}},
	{"Mixolydian", []int{0, 2, 4, 5, 7, 9, 10}},
	{"Phrygian", []int{0, 1, 3, 5, 7, 8, 10}},
	{"Lydian", []int{0, 2, 4, 6, 7, 9, 11}},
	{"Locrian", []int{0, 1, 3, 5, 6, 8, 10}},
	{"HarmonicMinor", []int{0, 2, 3, 5, 7, 8, 11}},
	{"MelodicMinor", []int{0, 2, 3, 5, 7, 9, 11}},
	{"DiminishedHW", []int{0, 1, 3, 4, 6, 7, 9, 10}},
	{"DiminishedWH", []int{0, 2, 3, 5, 6, 8, 9, 11}},
}

// Result is the best-fit (root, template) match.
type Result struct {
	Root         int // 0-11, pitch class
	TemplateIdx  int
	TemplateName string
	Score        float64
}

// Detector accumulates a 12-bit pitch-class histogram and caches the
// best-fit result until a new note invalidates it (the "dirty flag" of
// spec.md §4.5).
type Detector struct {
	mask  uint16
	dirty bool
	cache Result
	have  bool
}

func New() *Detector {
	return &Detector{dirty: true}
}

// Observe folds a MIDI note into the pitch-class histogram.
func (d *Detector) Observe(note int) {
	pc := ((note % 12) + 12) % 12
	bit := uint16(1) << uint(pc)
	if d.mask&bit == 0 {
		d.mask |= bit
		d.dirty = true
	}
}

// Reset clears the histogram (e.g. when re-scanning all chord-follow tracks).
func (d *Detector) Reset() {
	d.mask = 0
	d.dirty = true
	d.have = false
}

func templateMask(root int, tmpl Template) uint16 {
	var m uint16
	for _, iv := range tmpl.Intervals {
		pc := (root + iv) % 12
		m |= uint16(1) << uint(pc)
	}
	return m
}

// Detect is idempotent (spec.md §8.6): repeated calls without an
// intervening Observe return identical (root, index).
func (d *Detector) Detect() Result {
	if !d.dirty && d.have {
		return d.cache
	}
	totalBits := popcount(d.mask)
	best := Result{Score: -1}
	if totalBits == 0 {
		d.cache = Result{}
		d.dirty = false
		d.have = true
		return d.cache
	}

	for root := 0; root < 12; root++ {
		for ti, tmpl := range Templates {
			m := templateMask(root, tmpl)
			inScale := popcount(d.mask & m)
			score := float64(inScale)*1000/float64(totalBits) + 100/float64(len(tmpl.Intervals))
			if score > best.Score {
				best = Result{Root: root, TemplateIdx: ti, TemplateName: tmpl.Name, Score: score}
			}
		}
	}

	d.cache = best
	d.dirty = false
	d.have = true
	return best
}

func popcount(m uint16) int {
	n := 0
	for m != 0 {
		n += int(m & 1)
		m >>= 1
	}
	return n
}
