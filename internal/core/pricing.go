package core

import (
	"strconv"

	"github.com/goccy/go-json"

	"github.com/edvin/containerstacks/internal/model"
	"github.com/edvin/containerstacks/internal/provider"
)

// HoursPerMonth is the average number of hours in a month used to derive
// hourly prices.
const HoursPerMonth = 730

// specAlias is one historical field name for a spec value and the factor
// that converts it to the canonical unit.
type specAlias struct {
	key    string
	factor float64
}

var (
	diskAliases     = []specAlias{{"disk", 1}, {"storage_mb", 1}, {"storage_gb", 1024}}
	memoryAliases   = []specAlias{{"memory", 1}, {"memory_mb", 1}, {"memory_gb", 1024}}
	vcpuAliases     = []specAlias{{"vcpus", 1}, {"cpu_cores", 1}}
	transferAliases = []specAlias{{"transfer", 1}, {"transfer_gb", 1}, {"bandwidth_gb", 1}}
)

// NormalizeSpecs reads a specifications bag, taking for each field the first
// alias present in priority order. Memory and disk are in MB, transfer in GB.
func NormalizeSpecs(specs map[string]any) model.PlanSpecs {
	return model.PlanSpecs{
		VCPUs:    firstDefined(specs, vcpuAliases),
		Memory:   firstDefined(specs, memoryAliases),
		Disk:     firstDefined(specs, diskAliases),
		Transfer: firstDefined(specs, transferAliases),
	}
}

func firstDefined(specs map[string]any, aliases []specAlias) float64 {
	for _, a := range aliases {
		v, ok := specs[a.key]
		if !ok || v == nil {
			continue
		}
		return toFloat(v) * a.factor
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

// Pricing computes the monthly (base plus markup) and hourly price of a plan.
func Pricing(plan *model.VpsPlan) model.PlanPricing {
	if plan == nil {
		return model.PlanPricing{}
	}
	return PricingFor(plan.BasePrice + plan.MarkupPrice)
}

func PricingFor(monthly float64) model.PlanPricing {
	p := model.PlanPricing{Monthly: monthly}
	if monthly > 0 {
		p.Hourly = monthly / HoursPerMonth
	}
	return p
}

// SpecsFromProvider converts live provider specs for instances without a
// plan row.
func SpecsFromProvider(s provider.Specs) model.PlanSpecs {
	return model.PlanSpecs{
		VCPUs:    float64(s.VCPUs),
		Memory:   float64(s.MemoryMB),
		Disk:     float64(s.DiskMB),
		Transfer: float64(s.TransferGB),
	}
}
