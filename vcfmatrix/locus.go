package vcfmatrix

import (
	"fmt"
	"strconv"
	"strings"
)

// TabixLocus is a region to query from a tabix indexed VCF. Start is the
// 0-based start and End the 1-based, inclusive end, as tabix expects.
type TabixLocus struct {
	chrom string
	start int
	end   int
}

func MakeTabixLocus(chrom string, start, end int) TabixLocus {
	return TabixLocus{chrom, start, end}
}

func (tl TabixLocus) Chrom() string {
	return tl.chrom
}

func (tl TabixLocus) Start() uint32 {
	return uint32(tl.start)
}

func (tl TabixLocus) End() uint32 {
	return uint32(tl.end)
}

func (tl TabixLocus) String() string {
	return fmt.Sprintf("%s:%d-%d", tl.chrom, tl.start+1, tl.end)
}

// ParseLocus reads a samtools style region, chrom:from-to, with a 1-based,
// inclusive range. A bare chromosome covers the whole chromosome.
func ParseLocus(region string) (TabixLocus, error) {
	chrom, span, found := strings.Cut(region, ":")
	if chrom == "" {
		return TabixLocus{}, fmt.Errorf("region %q has no chromosome", region)
	}
	if !found {
		return MakeTabixLocus(chrom, 0, 1<<31-1), nil
	}

	from, to, found := strings.Cut(strings.ReplaceAll(span, ",", ""), "-")
	if !found {
		return TabixLocus{}, fmt.Errorf("region %q should look like chrom:from-to", region)
	}
	start, err := strconv.Atoi(from)
	if err != nil {
		return TabixLocus{}, fmt.Errorf("region %q: %w", region, err)
	}
	end, err := strconv.Atoi(to)
	if err != nil {
		return TabixLocus{}, fmt.Errorf("region %q: %w", region, err)
	}
	if start < 1 || end < start {
		return TabixLocus{}, fmt.Errorf("region %q is empty or starts before 1", region)
	}

	return MakeTabixLocus(chrom, start-1, end), nil
}
