// Package lhagrid reads central members of LHAPDF6 sets in the lhagrid1
// format and interpolates them bilinearly in (log x, log Q^2).
package lhagrid

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sergeyir/HardProcessesLO/pkg/contract"
	"github.com/Sergeyir/HardProcessesLO/plugins/pdf/toy"
)

// EnvDataPath lists extra set directories, separated like PATH.
const EnvDataPath = "LHAPDF_DATA_PATH"

type Options struct {
	// Set is the directory name of the PDF set.
	Set string `json:"set"`
	// Paths are searched before EnvDataPath.
	Paths []string `json:"paths"`
	// Member selects <set>_NNNN.dat; 0 is the central member.
	Member int `json:"member"`
}

// Info is the subset of the .info metadata used here.
type Info struct {
	SetDesc    string    `yaml:"SetDesc"`
	Format     string    `yaml:"Format"`
	Flavors    []int     `yaml:"Flavors"`
	NumMembers int       `yaml:"NumMembers"`
	XMin       float64   `yaml:"XMin"`
	XMax       float64   `yaml:"XMax"`
	QMin       float64   `yaml:"QMin"`
	QMax       float64   `yaml:"QMax"`
	AlphaSMZ   float64   `yaml:"AlphaS_MZ"`
	AlphaSQs   []float64 `yaml:"AlphaS_Qs"`
	AlphaSVals []float64 `yaml:"AlphaS_Vals"`
}

// subgrid is one Q block; values are stored per flavour as [ix*nq+iq].
type subgrid struct {
	logX, logQ2 []float64
	q2Lo, q2Hi  float64
	values      map[int][]float64
}

// Set is immutable after Load.
type Set struct {
	name  string
	info  Info
	grids []subgrid
	// alphaLogQ2 holds log Q^2 of the AlphaS_Qs knots.
	alphaLogQ2 []float64
}

// SearchPaths returns extra followed by the entries of EnvDataPath.
func SearchPaths(extra ...string) []string {
	out := make([]string, 0, len(extra)+2)
	for _, p := range extra {
		if p != "" {
			out = append(out, p)
		}
	}
	for _, p := range filepath.SplitList(os.Getenv(EnvDataPath)) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Find returns the directory holding set, or ErrPDFSetNotFound.
func Find(set string, paths []string) (string, error) {
	if set == "" || strings.ContainsAny(set, `/\`) || set == "." || set == ".." {
		return "", fmt.Errorf("%w: set name %q", contract.ErrPDFSetNotFound, set)
	}
	for _, root := range paths {
		dir := filepath.Join(root, set)
		if _, err := os.Stat(filepath.Join(dir, set+".info")); err == nil {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", contract.ErrPDFSetNotFound, set, strings.Join(paths, string(os.PathListSeparator)))
}

func New(opts *Options) (*Set, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: lhagrid needs a set name", contract.ErrConfig)
	}
	return Load(opts.Set, opts.Member, SearchPaths(opts.Paths...))
}

// Load reads <dir>/<set>.info and member file <set>_NNNN.dat.
func Load(set string, member int, paths []string) (*Set, error) {
	dir, err := Find(set, paths)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(dir, set+".info"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrPDFSetNotFound, err)
	}
	var info Info
	if err := yaml.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("%w: %s.info: %v", contract.ErrPDFFormat, set, err)
	}
	if info.Format != "" && info.Format != "lhagrid1" {
		return nil, fmt.Errorf("%w: %s: format %q", contract.ErrPDFFormat, set, info.Format)
	}
	if len(info.AlphaSQs) != len(info.AlphaSVals) {
		return nil, fmt.Errorf("%w: %s: AlphaS_Qs and AlphaS_Vals differ in length", contract.ErrPDFFormat, set)
	}
	if member < 0 || (info.NumMembers > 0 && member >= info.NumMembers) {
		return nil, fmt.Errorf("%w: %s member %d", contract.ErrPDFSetNotFound, set, member)
	}
	data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%s_%04d.dat", set, member)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrPDFSetNotFound, err)
	}
	grids, err := parseGrid(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", contract.ErrPDFFormat, set, err)
	}
	knots := make([]float64, len(info.AlphaSQs))
	for i, q := range info.AlphaSQs {
		if !(q > 0) || (i > 0 && q < info.AlphaSQs[i-1]) {
			return nil, fmt.Errorf("%w: %s: AlphaS_Qs must be positive and non-decreasing", contract.ErrPDFFormat, set)
		}
		knots[i] = math.Log(q * q)
	}
	return &Set{name: set, info: info, grids: grids, alphaLogQ2: knots}, nil
}

// parseGrid splits the member file on "---" lines; the first block is the
// member header and is not needed.
func parseGrid(data []byte) ([]subgrid, error) {
	var blocks [][]string
	var cur []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "---" {
			blocks = append(blocks, cur)
			cur = nil
			continue
		}
		if line != "" {
			cur = append(cur, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}
	if len(blocks) < 2 {
		return nil, fmt.Errorf("no subgrids")
	}
	var out []subgrid
	for i, b := range blocks[1:] {
		g, err := parseSubgrid(b)
		if err != nil {
			return nil, fmt.Errorf("subgrid %d: %w", i, err)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].q2Lo < out[j].q2Lo })
	return out, nil
}

func floats(line string) ([]float64, error) {
	fs := strings.Fields(line)
	out := make([]float64, len(fs))
	for i, f := range fs {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseSubgrid(lines []string) (subgrid, error) {
	var g subgrid
	if len(lines) < 3 {
		return g, fmt.Errorf("want x, Q and flavour lines, got %d lines", len(lines))
	}
	xs, err := floats(lines[0])
	if err != nil {
		return g, fmt.Errorf("x knots: %w", err)
	}
	qs, err := floats(lines[1])
	if err != nil {
		return g, fmt.Errorf("Q knots: %w", err)
	}
	var pids []int
	for _, f := range strings.Fields(lines[2]) {
		p, err := strconv.Atoi(f)
		if err != nil {
			return g, fmt.Errorf("flavour ids: %w", err)
		}
		pids = append(pids, p)
	}
	if len(xs) < 2 || len(qs) < 2 || len(pids) == 0 {
		return g, fmt.Errorf("grid needs at least 2x2 knots and one flavour")
	}
	rows := lines[3:]
	if len(rows) != len(xs)*len(qs) {
		return g, fmt.Errorf("want %d rows, got %d", len(xs)*len(qs), len(rows))
	}
	g.logX = make([]float64, len(xs))
	for i, x := range xs {
		if !(x > 0) || (i > 0 && x <= xs[i-1]) {
			return g, fmt.Errorf("x knots must be positive and increasing")
		}
		g.logX[i] = math.Log(x)
	}
	g.logQ2 = make([]float64, len(qs))
	for i, q := range qs {
		if !(q > 0) || (i > 0 && q <= qs[i-1]) {
			return g, fmt.Errorf("Q knots must be positive and increasing")
		}
		g.logQ2[i] = math.Log(q * q)
	}
	g.q2Lo, g.q2Hi = qs[0]*qs[0], qs[len(qs)-1]*qs[len(qs)-1]
	g.values = make(map[int][]float64, len(pids))
	for _, p := range pids {
		g.values[p] = make([]float64, len(rows))
	}
	for r, line := range rows {
		vs, err := floats(line)
		if err != nil {
			return g, fmt.Errorf("row %d: %w", r, err)
		}
		if len(vs) != len(pids) {
			return g, fmt.Errorf("row %d: want %d values, got %d", r, len(pids), len(vs))
		}
		for k, p := range pids {
			g.values[p][r] = vs[k]
		}
	}
	return g, nil
}

func (s *Set) SetName() string { return s.name }

// Info returns the parsed set metadata.
func (s *Set) Info() Info { return s.info }

func (s *Set) Range() (xMin, xMax, q2Min, q2Max float64) {
	first, last := s.grids[0], s.grids[len(s.grids)-1]
	return math.Exp(first.logX[0]), math.Exp(first.logX[len(first.logX)-1]), first.q2Lo, last.q2Hi
}

func (s *Set) subgridFor(q2 float64) *subgrid {
	for i := range s.grids {
		if q2 <= s.grids[i].q2Hi {
			return &s.grids[i]
		}
	}
	return &s.grids[len(s.grids)-1]
}

// bracket returns i with knots[i] <= v <= knots[i+1] and the fractional
// position, clamping v to the knot range.
func bracket(knots []float64, v float64) (int, float64) {
	n := len(knots)
	if v <= knots[0] {
		return 0, 0
	}
	if v >= knots[n-1] {
		return n - 2, 1
	}
	i := sort.SearchFloat64s(knots, v) - 1
	if i < 0 {
		i = 0
	}
	return i, (v - knots[i]) / (knots[i+1] - knots[i])
}

// XfxQ2 returns x*f(x, Q^2) for pid (0 and 21 are the gluon). Values outside
// the grid are frozen at the nearest edge; x outside (0, 1] gives 0.
// Negative interpolated densities, which fitted sets can have at large x,
// are clamped to 0 so that cross sections stay non-negative.
func (s *Set) XfxQ2(pid int, x, q2 float64) float64 {
	if !(x > 0) || x > 1 || !(q2 > 0) {
		return 0
	}
	if pid == 0 {
		pid = contract.GluonPDGID
	}
	g := s.subgridFor(q2)
	vals, ok := g.values[pid]
	if !ok {
		return 0
	}
	nq := len(g.logQ2)
	ix, fx := bracket(g.logX, math.Log(x))
	iq, fq := bracket(g.logQ2, math.Log(q2))
	v00 := vals[ix*nq+iq]
	v01 := vals[ix*nq+iq+1]
	v10 := vals[(ix+1)*nq+iq]
	v11 := vals[(ix+1)*nq+iq+1]
	return math.Max(0, (1-fx)*((1-fq)*v00+fq*v01)+fx*((1-fq)*v10+fq*v11))
}

// AlphasQ2 interpolates the tabulated coupling linearly in log Q^2, or runs
// it at one loop from AlphaS_MZ when the set carries no table.
func (s *Set) AlphasQ2(q2 float64) float64 {
	vs := s.info.AlphaSVals
	if len(s.alphaLogQ2) < 2 {
		mz := s.info.AlphaSMZ
		if mz <= 0 {
			mz = toy.DefaultAlphasMZ
		}
		return toy.OneLoopAlphas(mz, q2)
	}
	i, f := bracket(s.alphaLogQ2, math.Log(math.Max(q2, 1e-300)))
	return (1-f)*vs[i] + f*vs[i+1]
}
