package humanize

import "fmt"

const siUnitBase = 1000

var siUnits = []string{"", "K", "M", "G", "T", "P", "E"}

func Bytes(n int) string     { return formatUnit(n, "Bytes") }
func BytesRate(n int) string { return formatUnit(n, "Bytes/s") }
func BitsRate(n int) string  { return formatUnit(n, "Bits/s") }

func formatUnit(n int, suffix string) string {
	if n < siUnitBase {
		return fmt.Sprintf("%d %s", n, suffix)
	}
	value := float64(n)
	for i := 1; i < len(siUnits); i++ {
		value /= siUnitBase
		if value < siUnitBase {
			return fmt.Sprintf("%.1f %s%s", value, siUnits[i], suffix)
		}
	}
	return fmt.Sprintf("%.1f %s%s", value, siUnits[len(siUnits)-1], suffix)
}
