package report

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/sizefmt"
)

// ErrBudgetExceeded is returned when the overall growth is above the allowed
// increase.
var ErrBudgetExceeded = errors.New("size budget exceeded")

// CheckBudget fails when the overall delta of the first transformation is
// greater than maxIncrease bytes.
func CheckBudget(doc Document, maxIncrease int64) error {
	total := doc.TotalDiff(0)
	if len(doc.Transformations) == 0 || total <= maxIncrease {
		return nil
	}

	return fmt.Errorf("%w: %s grew by %s, allowed %s", ErrBudgetExceeded,
		doc.Transformations[0].Label(),
		sizefmt.Format(total, sizefmt.Options{Diff: true}),
		sizefmt.Format(maxIncrease, sizefmt.Options{Diff: true}),
	)
}
