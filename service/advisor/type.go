package advisor

import "context"

// IService produces free-text recycling advice. Calls may be slow or fail.
type IService interface {
	Advise(ctx context.Context, subject string) (string, error)
}
