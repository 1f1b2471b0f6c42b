package feed

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Validator drops records that break the feed contract
// (missing labels, available > total, unknown room status...).
type Validator struct {
	validate *validator.Validate
	logger   *zap.Logger
}

func NewValidator(logger *zap.Logger) *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Filter returns the valid records of one feed, in feed order.
func Filter[T any](v *Validator, feed Name, records []T) []T {
	kept := make([]T, 0, len(records))
	for i := range records {
		if err := v.validate.Struct(records[i]); err != nil {
			v.logger.Warn("Dropping invalid feed record",
				zap.String("feed", string(feed)),
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		kept = append(kept, records[i])
	}
	return kept
}
