package chart

import (
	"cmp"
	"slices"

	"github.com/roach88/sseqchart/internal/page"
	"github.com/roach88/sseqchart/internal/value"
)

// Every setter below queues the settings message, which always carries the
// settings current at flush time.

// PageList returns the display pages in order.
func (c *Chart) PageList() []page.Pair {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	return slices.Clone(c.pageList)
}

// SetPageList replaces the display pages. Pages are clamped to Infinity,
// then the list is sorted and duplicates are dropped.
func (c *Chart) SetPageList(pairs []page.Pair) {
	c.settingsMu.Lock()
	c.pageList = sortedPairs(pairs)
	c.settingsMu.Unlock()
	c.queueSettings()
}

// AddPageRange inserts (minPage, maxLen) into the page list unless it is
// already present. Safe to call from a background goroutine.
// Returns true if the list changed.
func (c *Chart) AddPageRange(minPage, maxLen page.Page) bool {
	pair := page.Pair{Page: minPage, MaxLen: maxLen}.Clamp()

	c.settingsMu.Lock()
	i, found := slices.BinarySearchFunc(c.pageList, pair, comparePairs)
	if found {
		c.settingsMu.Unlock()
		return false
	}
	c.pageList = slices.Insert(c.pageList, i, pair)
	c.settingsMu.Unlock()

	c.queueSettings()
	return true
}

func comparePairs(a, b page.Pair) int {
	if d := cmp.Compare(a.Page, b.Page); d != 0 {
		return d
	}
	return cmp.Compare(a.MaxLen, b.MaxLen)
}

func sortedPairs(pairs []page.Pair) []page.Pair {
	out := make([]page.Pair, len(pairs))
	for i, p := range pairs {
		out[i] = p.Clamp()
	}
	slices.SortFunc(out, comparePairs)
	return slices.Compact(out)
}

// XProjection returns the weights projecting degrees onto the x axis.
func (c *Chart) XProjection() []int64 {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	return slices.Clone(c.xProjection)
}

// YProjection returns the weights projecting degrees onto the y axis.
func (c *Chart) YProjection() []int64 {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	return slices.Clone(c.yProjection)
}

// SetXProjection sets the x axis weights; one weight per grading.
func (c *Chart) SetXProjection(weights []int64) error {
	return c.setProjection(&c.xProjection, weights)
}

// SetYProjection sets the y axis weights; one weight per grading.
func (c *Chart) SetYProjection(weights []int64) error {
	return c.setProjection(&c.yProjection, weights)
}

func (c *Chart) setProjection(dst *[]int64, weights []int64) error {
	if len(weights) != c.numGradings {
		return newError(ErrCodeWrongArity, "", "projection %v has %d entries, chart has num_gradings %d", weights, len(weights), c.numGradings)
	}
	c.settingsMu.Lock()
	*dst = slices.Clone(weights)
	c.settingsMu.Unlock()
	c.queueSettings()
	return nil
}

// XRange returns the x extent of the chart.
func (c *Chart) XRange() (lo, hi int64) { return c.getRange(&c.xRange) }

// YRange returns the y extent of the chart.
func (c *Chart) YRange() (lo, hi int64) { return c.getRange(&c.yRange) }

// InitialXRange returns the x extent shown when a display opens.
func (c *Chart) InitialXRange() (lo, hi int64) { return c.getRange(&c.initialXRange) }

// InitialYRange returns the y extent shown when a display opens.
func (c *Chart) InitialYRange() (lo, hi int64) { return c.getRange(&c.initialYRange) }

func (c *Chart) SetXRange(lo, hi int64)        { c.setRange(&c.xRange, lo, hi) }
func (c *Chart) SetYRange(lo, hi int64)        { c.setRange(&c.yRange, lo, hi) }
func (c *Chart) SetInitialXRange(lo, hi int64) { c.setRange(&c.initialXRange, lo, hi) }
func (c *Chart) SetInitialYRange(lo, hi int64) { c.setRange(&c.initialYRange, lo, hi) }

func (c *Chart) getRange(r *[2]int64) (int64, int64) {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()
	return r[0], r[1]
}

func (c *Chart) setRange(dst *[2]int64, lo, hi int64) {
	c.settingsMu.Lock()
	*dst = [2]int64{lo, hi}
	c.settingsMu.Unlock()
	c.queueSettings()
}

// settingsFields renders the settings carried by the settings message and
// embedded in the chart encoding: view settings, default styles and the
// named registries.
func (c *Chart) settingsFields() value.Object {
	obj := c.viewFields()
	c.encodeRegistries(obj)
	return obj
}

func (c *Chart) viewFields() value.Object {
	c.settingsMu.Lock()
	defer c.settingsMu.Unlock()

	pages := make(value.Array, len(c.pageList))
	for i, p := range c.pageList {
		pages[i] = value.Array{value.Int(p.Page), value.Int(p.MaxLen)}
	}
	return value.Object{
		"page_list":       pages,
		"x_projection":    value.Ints(c.xProjection),
		"y_projection":    value.Ints(c.yProjection),
		"x_range":         value.Ints(c.xRange[:]),
		"y_range":         value.Ints(c.yRange[:]),
		"initial_x_range": value.Ints(c.initialXRange[:]),
		"initial_y_range": value.Ints(c.initialYRange[:]),
	}
}

// applySettings assigns every settings field present in fields. On error
// nothing changes.
func (c *Chart) applySettings(fields value.Object) error {
	commitRegistries, err := c.decodeRegistries(fields)
	if err != nil {
		return err
	}

	var pages []page.Pair
	if v, ok := fields["page_list"]; ok {
		arr, ok := v.(value.Array)
		if !ok {
			return malformed("page_list: expected array, got %s", value.KindOf(v))
		}
		pages = make([]page.Pair, len(arr))
		for i, elem := range arr {
			pair, ok := elem.(value.Array)
			if !ok || len(pair) != 2 {
				return malformed("page_list[%d]: expected [page, max_len]", i)
			}
			ns, err := value.AsInts(pair, "page_list")
			if err != nil {
				return malformed("page_list[%d]: %v", i, err)
			}
			pages[i] = page.Pair{Page: page.Page(ns[0]), MaxLen: page.Page(ns[1])}
		}
	}

	projections := map[string]*[]int64{"x_projection": &c.xProjection, "y_projection": &c.yProjection}
	ranges := map[string]*[2]int64{
		"x_range":         &c.xRange,
		"y_range":         &c.yRange,
		"initial_x_range": &c.initialXRange,
		"initial_y_range": &c.initialYRange,
	}

	newProjections := map[string][]int64{}
	for key := range projections {
		if _, ok := fields[key]; !ok {
			continue
		}
		w, err := fields.GetInts(key)
		if err != nil {
			return malformed("%v", err)
		}
		if len(w) != c.numGradings {
			return newError(ErrCodeWrongArity, "", "%s has %d entries, chart has num_gradings %d", key, len(w), c.numGradings)
		}
		newProjections[key] = w
	}
	newRanges := map[string][2]int64{}
	for key := range ranges {
		if _, ok := fields[key]; !ok {
			continue
		}
		r, err := fields.GetInts(key)
		if err != nil {
			return malformed("%v", err)
		}
		if len(r) != 2 {
			return malformed("%s: expected [min, max]", key)
		}
		newRanges[key] = [2]int64{r[0], r[1]}
	}

	commitRegistries()
	c.settingsMu.Lock()
	if pages != nil {
		c.pageList = sortedPairs(pages)
	}
	for key, w := range newProjections {
		*projections[key] = w
	}
	for key, r := range newRanges {
		*ranges[key] = r
	}
	c.settingsMu.Unlock()

	c.queueSettings()
	return nil
}
