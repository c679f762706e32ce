package logic

// Stats holds the running statistics of one quantity.
type Stats struct {
	Avg Sample
	Min Sample
	Max Sample
}

// Get returns the statistic of the given kind.
func (s Stats) Get(k StatKind) Sample {
	switch k {
	case StatMax:
		return s.Max
	case StatMin:
		return s.Min
	default:
		return s.Avg
	}
}

// fold widens min/max with a reading. Invalid readings are ignored and never
// replace a bound.
func (s *Stats) fold(v Sample) {
	if !v.valid {
		return
	}
	if !s.Min.valid || v.value < s.Min.value {
		s.Min = v
	}
	if !s.Max.valid || v.value > s.Max.value {
		s.Max = v
	}
}

// accumulator sums valid readings of one quantity over a window.
type accumulator struct {
	sum   uint64
	count uint32
}

func (a *accumulator) add(v Sample) {
	if !v.valid {
		return
	}
	a.sum += uint64(v.value)
	a.count++
}

func (a *accumulator) avg() Sample {
	if a.count == 0 {
		return Invalid
	}
	return Valid(uint16(a.sum / uint64(a.count)))
}

// Engine accumulates windows of raw readings into per-quantity statistics.
// It is not safe for concurrent use.
type Engine struct {
	window int
	stats  [3]Stats
}

// NewEngine creates an engine that reads window samples per pass.
// A window below 1 is treated as 1.
func NewEngine(window int) *Engine {
	if window < 1 {
		window = 1
	}
	return &Engine{window: window}
}

// Window returns the number of readings per pass.
func (e *Engine) Window() int {
	return e.window
}

// Sample performs one averaging pass over window readings.
// Avg is recomputed from this window only; Min/Max keep accumulating.
func (e *Engine) Sample(r SampleReader) {
	var acc [3]accumulator
	for i := 0; i < e.window; i++ {
		current := r.ReadCurrent()
		voltage := r.ReadVoltage()
		e.fold(current, voltage, &acc)
	}
	for q := range e.stats {
		e.stats[q].Avg = acc[q].avg()
	}
}

func (e *Engine) fold(current, voltage Sample, acc *[3]accumulator) {
	readings := [3]Sample{
		QuantityCurrent: current,
		QuantityVoltage: voltage,
		QuantityPower:   Power(current, voltage),
	}
	for q, v := range readings {
		e.stats[q].fold(v)
		acc[q].add(v)
	}
}

// Reset restarts min/max of every quantity according to policy.
func (e *Engine) Reset(policy ResetPolicy) {
	for q := range e.stats {
		s := &e.stats[q]
		switch policy {
		case ResetInvalidate:
			s.Min = Invalid
			s.Max = Invalid
		default:
			s.Min = s.Avg
			s.Max = s.Avg
		}
	}
}

// Stats returns the statistics of a quantity.
func (e *Engine) Stats(q Quantity) Stats {
	if q < QuantityCurrent || q > QuantityPower {
		return Stats{}
	}
	return e.stats[q]
}

// Value returns the sample the display shows for a mode.
// Capacity is not a sampled quantity and yields Invalid.
func (e *Engine) Value(m Mode) Sample {
	switch m.Unit {
	case UnitCurrent:
		return e.stats[QuantityCurrent].Get(m.Stat)
	case UnitVoltage:
		return e.stats[QuantityVoltage].Get(m.Stat)
	case UnitPower:
		return e.stats[QuantityPower].Get(m.Stat)
	default:
		return Invalid
	}
}
