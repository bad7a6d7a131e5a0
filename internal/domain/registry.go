package domain

import (
	"fmt"
	"slices"
	"strings"
)

// PatternID identifies one of the five detectable patterns.
type PatternID string

const (
	PatternNetworkBottleneck   PatternID = "P1"
	PatternServiceCoverage     PatternID = "P2"
	PatternBoundarySpillover   PatternID = "P3"
	PatternAccessDiscontinuity PatternID = "P4"
	PatternAidActivity         PatternID = "P5"
)

// PatternConfig is the static definition of a pattern.
type PatternConfig struct {
	ID        PatternID `json:"id"`
	Name      string    `json:"name"`
	NameAr    string    `json:"name_ar"`
	Message   string    `json:"message"`
	MessageAr string    `json:"message_ar"`
	Enabled   bool      `json:"enabled"`
}

var defaultPatterns = []PatternConfig{
	{
		ID:        PatternNetworkBottleneck,
		Name:      "Network Bottleneck",
		NameAr:    "اختناق في شبكة الطرق",
		Message:   "This area may have limited road access, which could affect how aid and services reach it.",
		MessageAr: "قد تكون إمكانية الوصول عبر الطرق محدودة في هذه المنطقة، مما قد يؤثر على وصول المساعدات والخدمات إليها.",
		Enabled:   true,
	},
	{
		ID:        PatternServiceCoverage,
		Name:      "Service Coverage Question",
		NameAr:    "تساؤل حول تغطية الخدمات",
		Message:   "Service coverage in this large governorate may be uneven. This is an open question worth verifying locally.",
		MessageAr: "قد تكون تغطية الخدمات في هذه المحافظة الكبيرة غير متكافئة. هذا سؤال مفتوح يستحق التحقق منه محلياً.",
		Enabled:   true,
	},
	{
		ID:        PatternBoundarySpillover,
		Name:      "Cross-Boundary Pattern",
		NameAr:    "نمط عابر للحدود الإدارية",
		Message:   "This location spans more than one governorate. Responsibilities and services may differ on each side of the boundary.",
		MessageAr: "يمتد هذا الموقع عبر أكثر من محافظة. قد تختلف المسؤوليات والخدمات على جانبي الحدود.",
		Enabled:   true,
	},
	{
		ID:        PatternAccessDiscontinuity,
		Name:      "Access Discontinuity",
		NameAr:    "انقطاع في إمكانية الوصول",
		Message:   "This location may be administratively tied to a distant center while a closer governorate could be easier to reach.",
		MessageAr: "قد يكون هذا الموقع تابعاً إدارياً لمركز بعيد بينما قد يكون الوصول إلى محافظة أقرب أسهل.",
		Enabled:   true,
	},
	{
		ID:        PatternAidActivity,
		Name:      "Aid Activity Pattern",
		NameAr:    "نمط نشاط المساعدات",
		Message:   "Little humanitarian activity has been reported nearby. This area may be underserved.",
		MessageAr: "تم الإبلاغ عن نشاط إنساني محدود في الجوار. قد تكون هذه المنطقة غير مخدومة بشكل كافٍ.",
		Enabled:   true,
	},
}

// defaultRegistry is built once and never mutated.
var defaultRegistry = NewRegistry(defaultPatterns...)

// Registry is an immutable set of pattern definitions. Methods that change
// a pattern return a modified copy.
type Registry struct {
	patterns map[PatternID]PatternConfig
}

// NewRegistry builds a registry from the given definitions.
func NewRegistry(configs ...PatternConfig) Registry {
	patterns := make(map[PatternID]PatternConfig, len(configs))
	for _, c := range configs {
		patterns[c.ID] = c
	}
	return Registry{patterns: patterns}
}

// DefaultRegistry returns the process-wide registry with all five patterns.
func DefaultRegistry() Registry {
	return defaultRegistry
}

// GetPatternConfig looks up a pattern in the default registry.
func GetPatternConfig(id PatternID) (PatternConfig, bool) {
	return defaultRegistry.Get(id)
}

// HasEnabledPatterns reports whether the default registry has any enabled pattern.
func HasEnabledPatterns() bool {
	return defaultRegistry.HasEnabled()
}

func (r Registry) Get(id PatternID) (PatternConfig, bool) {
	c, ok := r.patterns[id]
	return c, ok
}

// Enabled reports whether id is known and switched on.
func (r Registry) Enabled(id PatternID) bool {
	c, ok := r.patterns[id]
	return ok && c.Enabled
}

func (r Registry) HasEnabled() bool {
	for _, c := range r.patterns {
		if c.Enabled {
			return true
		}
	}
	return false
}

// IDs returns the registered pattern ids in ascending order.
func (r Registry) IDs() []PatternID {
	ids := make([]PatternID, 0, len(r.patterns))
	for id := range r.patterns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Configs returns every definition ordered by id.
func (r Registry) Configs() []PatternConfig {
	ids := r.IDs()
	out := make([]PatternConfig, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.patterns[id])
	}
	return out
}

// WithEnabled returns a copy of r with the enabled flag of id set. Unknown
// ids leave the copy unchanged.
func (r Registry) WithEnabled(id PatternID, enabled bool) Registry {
	out := r.clone()
	out.set(id, enabled)
	return out
}

// WithDisabled returns a copy of r with every listed pattern switched off.
func (r Registry) WithDisabled(ids ...PatternID) Registry {
	out := r.clone()
	for _, id := range ids {
		out.set(id, false)
	}
	return out
}

func (r Registry) clone() Registry {
	patterns := make(map[PatternID]PatternConfig, len(r.patterns))
	for k, v := range r.patterns {
		patterns[k] = v
	}
	return Registry{patterns: patterns}
}

// set mutates r in place; only call it on a fresh clone.
func (r Registry) set(id PatternID, enabled bool) {
	if c, ok := r.patterns[id]; ok {
		c.Enabled = enabled
		r.patterns[id] = c
	}
}

// ParsePatternID validates a pattern id such as "P3" (case-insensitive).
func ParsePatternID(s string) (PatternID, error) {
	id := PatternID(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := defaultRegistry.Get(id); !ok {
		return "", fmt.Errorf("unknown pattern id %q", s)
	}
	return id, nil
}
