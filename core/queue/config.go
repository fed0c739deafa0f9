package queue

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds configuration for the message broker.
type Config struct {
	// Host is the RabbitMQ server address.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the AMQP port.
	Port string `mapstructure:"port" default:"5672"`
	// User is the broker username.
	User string `mapstructure:"user" default:"guest"`
	// Password is the broker password.
	Password string `mapstructure:"password" default:"guest"`
	// VHost is the virtual host, without the leading slash.
	VHost string `mapstructure:"vhost" default:""`
	// Name is the job queue consumed by the worker.
	Name string `mapstructure:"name" default:"merge_jobs"`
	// MaxRetries is how often a failed job is retried before it is dead-lettered.
	MaxRetries int `mapstructure:"max_retries" default:"5"`
	// RetryDelaySeconds is how long a failed job waits in the retry queue.
	RetryDelaySeconds int `mapstructure:"retry_delay_seconds" default:"10"`
}

// URL returns the AMQP connection URL.
func (c Config) URL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Password),
		Host:   c.Host + ":" + c.Port,
		Path:   "/" + c.VHost,
	}
	return u.String()
}

// RetryDelay returns the retry queue TTL.
func (c Config) RetryDelay() time.Duration {
	if c.RetryDelaySeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// Validate checks the fields the worker cannot run without.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("queue host is not set")
	}
	if c.Name == "" {
		return fmt.Errorf("queue name is not set")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max retries %d", c.MaxRetries)
	}
	return nil
}
