package service

import "github.com/okian/customermatch/pkg/logger"

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithUserListName sets the name of lists created by the service.
func WithUserListName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.userListName = name
		}
	}
}

// WithMembershipLifeSpan sets the retention window, in days, of created lists.
func WithMembershipLifeSpan(days int) Option {
	return func(s *Service) {
		if days >= 0 {
			s.lifeSpanDays = days
		}
	}
}

// WithRunJob sets whether jobs run when a request does not say.
func WithRunJob(run bool) Option {
	return func(s *Service) {
		s.runJob = run
	}
}

// WithAbortOnEmpty stops uploads whose input yields no identity records.
func WithAbortOnEmpty(abort bool) Option {
	return func(s *Service) {
		s.abortOnEmpty = abort
	}
}
