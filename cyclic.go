/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package ocean

import (
	"fmt"
	"math"
)

// Forcing calendar. Every month is 30 days long, so the forcing
// repeats every 360 days.
const (
	SecondsPerDay  = 86400.0
	MonthLength    = 30 * SecondsPerDay // [s]
	MonthsPerCycle = 12
	CycleLength    = MonthsPerCycle * MonthLength // [s]
)

// CyclicTime is the position of a simulation time within the forcing
// cycle. Current and Next are 1-based month numbers and Fraction is
// the elapsed fraction of the current month.
type CyclicTime struct {
	Current, Next int
	Fraction      float64
}

// CyclicIndex returns the forcing months that bracket simulation time t
// [s since the start of the cycle]. t must be finite and non-negative.
func CyclicIndex(t float64) (CyclicTime, error) {
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return CyclicTime{}, &IndexError{Time: t}
	}
	k, f := monthIndex(t, MonthsPerCycle)
	return CyclicTime{
		Current:  k + 1,
		Next:     (k+1)%MonthsPerCycle + 1,
		Fraction: f,
	}, nil
}

// Interpolate linearly interpolates between the value v1 of the current
// month and the value v2 of the next month.
func (c CyclicTime) Interpolate(v1, v2 float64) float64 {
	return v1 + c.Fraction*(v2-v1)
}

func (c CyclicTime) String() string {
	return fmt.Sprintf("month %d→%d (%.3f)", c.Current, c.Next, c.Fraction)
}

// monthIndex returns the 0-based month within a cycle of the given
// number of periods and the elapsed fraction of that month. The
// remainder within the cycle is taken before dividing, so the result
// does not lose precision as t grows.
func monthIndex(t float64, periods int) (int, float64) {
	r := math.Mod(t, float64(periods)*MonthLength)
	if r < 0 {
		r += float64(periods) * MonthLength
	}
	rem := math.Mod(r, MonthLength)
	k := int(math.Floor((r-rem)/MonthLength + 0.5))
	if k >= periods {
		k = periods - 1
	}
	f := rem / MonthLength
	if f >= 1 {
		f = math.Nextafter(1, 0)
	}
	return k, f
}

// CurrentMonth returns the 1-based month containing time t [s] in a
// cycle with the given number of periods.
func CurrentMonth(t float64, periods int) int {
	k, _ := monthIndex(t, periods)
	return k + 1
}

// NextMonth returns the 1-based month after the one containing time t.
func NextMonth(t float64, periods int) int {
	return CurrentMonth(t, periods)%periods + 1
}

// MonthFraction returns the elapsed fraction, in [0, 1), of the month
// containing time t.
func MonthFraction(t float64) float64 {
	_, f := monthIndex(t, MonthsPerCycle)
	return f
}

// CyclicInterpolate interpolates between the value v1 of the month
// containing t and the value v2 of the following month.
func CyclicInterpolate(v1, v2, t float64) float64 {
	return v1 + MonthFraction(t)*(v2-v1)
}
