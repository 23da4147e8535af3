package cpu

import (
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
)

// HostInfo describes the processor the backend runs on.
type HostInfo struct {
	Brand         string
	Vendor        string
	PhysicalCores int
	LogicalCores  int
	Features      []string // SIMD extensions relevant to SGEMM kernels
}

// simdFeatures are reported in this order when present.
var simdFeatures = []struct {
	id   cpuid.FeatureID
	name string
}{
	{cpuid.SSE2, "SSE2"},
	{cpuid.AVX, "AVX"},
	{cpuid.AVX2, "AVX2"},
	{cpuid.FMA3, "FMA3"},
	{cpuid.AVX512F, "AVX512F"},
	{cpuid.ASIMD, "ASIMD"},
	{cpuid.SVE, "SVE"},
}

// Host probes the current CPU.
func Host() HostInfo {
	info := HostInfo{
		Brand:         strings.TrimSpace(cpuid.CPU.BrandName),
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
	}
	for _, f := range simdFeatures {
		if cpuid.CPU.Supports(f.id) {
			info.Features = append(info.Features, f.name)
		}
	}
	return info
}

func (h HostInfo) String() string {
	brand := h.Brand
	if brand == "" {
		brand = "unknown CPU"
	}
	features := "none"
	if len(h.Features) > 0 {
		features = strings.Join(h.Features, ",")
	}
	return fmt.Sprintf("%s (%d cores / %d threads, simd: %s)", brand, h.PhysicalCores, h.LogicalCores, features)
}

// Host reports the processor this backend runs on.
func (cpu *CPUBackend) Host() HostInfo {
	return Host()
}
