package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultImage = "postgres:17-alpine"
	pgPort       = nat.Port("5432/tcp")
)

type (
	// containerConfig describes the throwaway database used by tests.
	containerConfig struct {
		image    string
		name     string
		user     string
		password string
		database string
	}
	ContainerOption func(cfg *containerConfig)
	// Container is a started postgres test container.
	Container struct {
		testcontainers.Container
		cfg containerConfig
	}
)

func WithImage(image string) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.image = image
	}
}

// WithName reuses a running container with the same name.
func WithName(name string) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.name = name
	}
}

func WithCredentials(user, password, database string) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.user = user
		cfg.password = password
		cfg.database = database
	}
}

func StartContainer(ctx context.Context, opts ...ContainerOption) (*Container, error) {
	cfg := containerConfig{
		image:    defaultImage,
		user:     "postgres",
		password: "password",
		database: "postgres",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		Name:         cfg.name,
		ExposedPorts: []string{string(pgPort)},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		Env: map[string]string{
			"POSTGRES_USER":     cfg.user,
			"POSTGRES_PASSWORD": cfg.password,
			"POSTGRES_DB":       cfg.database,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
			wait.ForListeningPort(pgPort),
		).WithDeadline(time.Minute),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
		Reuse:            cfg.name != "",
	})
	if err != nil {
		return nil, err
	}
	return &Container{Container: c, cfg: cfg}, nil
}

// ConnectionString returns the url of the database inside the container.
func (c *Container) ConnectionString(ctx context.Context) (string, error) {
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, pgPort)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.cfg.user, c.cfg.password, host, port.Port(), c.cfg.database), nil
}
