package vm

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Profiler counts executions per opcode and per instruction site (program
// counter). Sites are only meaningful for a single program; give each
// program its own Profiler. Recording is safe from several goroutines.

// OpcodeProfile is a snapshot of one opcode's execution count.
type OpcodeProfile struct {
	Op    *Opcode
	Count uint64
}

// SiteProfile holds profiling data for a single instruction site.
type SiteProfile struct {
	PC    int
	Count uint64 // Atomic counter for executions
	hot   atomic.Bool
}

// IsHot reports whether the site reached the hot threshold.
func (s *SiteProfile) IsHot() bool { return s.hot.Load() }

// Profiler manages opcode and site counters.
type Profiler struct {
	opcodes sync.Map // *Opcode -> *uint64
	sites   sync.Map // int -> *SiteProfile

	// SiteHotThreshold is the execution count at which a site is hot,
	// typically a loop body. Default: 1000
	SiteHotThreshold uint64

	// OnHot is called once per site, on the execution that made it hot.
	OnHot func(pc int, in Instruction)

	hotSites atomic.Uint64
}

// NewProfiler creates a new profiler with the default threshold.
func NewProfiler() *Profiler {
	return &Profiler{SiteHotThreshold: 1000}
}

// Record counts one execution of in at pc. Returns true if this execution
// made the site hot.
func (p *Profiler) Record(pc int, in Instruction) bool {
	val, _ := p.opcodes.LoadOrStore(in.Op, new(uint64))
	atomic.AddUint64(val.(*uint64), 1)

	sval, _ := p.sites.LoadOrStore(pc, &SiteProfile{PC: pc})
	site := sval.(*SiteProfile)
	count := atomic.AddUint64(&site.Count, 1)
	if count < p.SiteHotThreshold || !site.hot.CompareAndSwap(false, true) {
		return false
	}
	p.hotSites.Add(1)
	log.Debugf("site %04d (%s) is hot after %d executions", pc, in.Op.Name, count)
	if p.OnHot != nil {
		p.OnHot(pc, in)
	}
	return true
}

// Count returns how often op ran.
func (p *Profiler) Count(op *Opcode) uint64 {
	if val, ok := p.opcodes.Load(op); ok {
		return atomic.LoadUint64(val.(*uint64))
	}
	return 0
}

// Site returns the profile for pc, or nil if it never ran.
func (p *Profiler) Site(pc int) *SiteProfile {
	if val, ok := p.sites.Load(pc); ok {
		return val.(*SiteProfile)
	}
	return nil
}

// ProfilerStats holds aggregate profiling statistics.
type ProfilerStats struct {
	Opcodes      int    // Distinct opcodes executed
	Sites        int    // Distinct instruction sites executed
	HotSites     int    // Sites past the hot threshold
	Instructions uint64 // Total executions
}

// Stats returns aggregate profiling statistics.
func (p *Profiler) Stats() ProfilerStats {
	var stats ProfilerStats
	p.opcodes.Range(func(_, value any) bool {
		stats.Opcodes++
		stats.Instructions += atomic.LoadUint64(value.(*uint64))
		return true
	})
	p.sites.Range(func(_, _ any) bool {
		stats.Sites++
		return true
	})
	stats.HotSites = int(p.hotSites.Load())
	return stats
}

// TopOpcodes returns the n most executed opcodes, ties broken by name.
func (p *Profiler) TopOpcodes(n int) []OpcodeProfile {
	var all []OpcodeProfile
	p.opcodes.Range(func(key, value any) bool {
		all = append(all, OpcodeProfile{Op: key.(*Opcode), Count: atomic.LoadUint64(value.(*uint64))})
		return true
	})
	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}
		return all[i].Op.Name < all[j].Op.Name
	})
	if n < len(all) {
		all = all[:n]
	}
	return all
}

// HotSites returns the program counters of every hot site in order.
func (p *Profiler) HotSites() []int {
	var hot []int
	p.sites.Range(func(key, value any) bool {
		if value.(*SiteProfile).IsHot() {
			hot = append(hot, key.(int))
		}
		return true
	})
	sort.Ints(hot)
	return hot
}

// Reset clears all profiling data.
func (p *Profiler) Reset() {
	p.opcodes.Clear()
	p.sites.Clear()
	p.hotSites.Store(0)
}
