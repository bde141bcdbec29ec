package dice_test

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/okian/dice/internal/domain/dice"
	. "github.com/smartystreets/goconvey/convey"
)

// lockedSource makes a seeded generator safe for concurrent use.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func seeded(seed uint64) *lockedSource {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type fixedSource []int

func (f fixedSource) IntN(int) int { return f[0] }

func TestRoller_Roll(t *testing.T) {
	Convey("Given a roller on the default source", t, func() {
		r := dice.NewRoller(nil)

		Convey("Then every roll should be within [1, 6]", func() {
			seen := make(map[int]bool)
			for i := 0; i < 10_000; i++ {
				face := r.Roll()
				So(face, ShouldBeBetweenOrEqual, 1, 6)
				seen[face] = true
			}
			So(len(seen), ShouldEqual, 6)
		})
	})

	Convey("Given a source returning its extremes", t, func() {
		Convey("Then 0 maps to 1 and 5 maps to 6", func() {
			So(dice.NewRoller(fixedSource{0}).Roll(), ShouldEqual, 1)
			So(dice.NewRoller(fixedSource{5}).Roll(), ShouldEqual, 6)
		})
	})
}

func TestRoller_RollN(t *testing.T) {
	Convey("Given a seeded roller", t, func() {
		r := dice.NewRoller(seeded(42))

		Convey("When rolling every valid count", func() {
			Convey("Then results should have count faces and total their sum", func() {
				for count := dice.MinCount; count <= dice.MaxCount; count++ {
					results, total, err := r.RollN(count)
					So(err, ShouldBeNil)
					So(len(results), ShouldEqual, count)
					sum := 0
					for _, v := range results {
						So(v, ShouldBeBetweenOrEqual, 1, 6)
						sum += v
					}
					So(total, ShouldEqual, sum)
				}
			})
		})

		Convey("When rolling an invalid count", func() {
			for _, count := range []int{0, -1, 101} {
				results, total, err := r.RollN(count)
				So(errors.Is(err, dice.ErrInvalidCount), ShouldBeTrue)
				So(results, ShouldBeNil)
				So(total, ShouldEqual, 0)
			}
		})

		Convey("When two rollers share a seed", func() {
			a, _, _ := dice.NewRoller(seeded(7)).RollN(20)
			b, _, _ := dice.NewRoller(seeded(7)).RollN(20)

			Convey("Then they should produce the same sequence", func() {
				So(a, ShouldResemble, b)
			})
		})
	})
}

func TestParseCount(t *testing.T) {
	Convey("Given raw count values", t, func() {
		Convey("When the value is an integer in range", func() {
			for raw, want := range map[string]int{"1": 1, "50": 50, "100": 100, "007": 7} {
				n, err := dice.ParseCount(raw)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, want)
			}
		})

		Convey("When the value is not a valid count", func() {
			for _, raw := range []string{"", "abc", "0", "101", "-3", "1.5", "5abc", " 5", "1e2", "99999999999999999999"} {
				n, err := dice.ParseCount(raw)
				So(errors.Is(err, dice.ErrInvalidCount), ShouldBeTrue)
				So(n, ShouldEqual, 0)
			}
		})
	})
}
