package yield

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"
)

// Schedule runs DistributeAll on the cron spec until ctx is done.
func (s *Service) Schedule(ctx context.Context, spec string) (*cron.Cron, error) {
	s.Bind(ctx)

	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Println("Scheduled yield distribution starting")
		sums, err := s.DistributeAll(ctx)
		if err != nil {
			log.Printf("Scheduled yield distribution: %v", err)
			return
		}
		log.Printf("Scheduled yield distribution done for %d properties", len(sums))
	})
	if err != nil {
		return nil, fmt.Errorf("yield schedule %q: %w", spec, err)
	}
	c.Start()

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
