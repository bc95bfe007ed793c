package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/boogy/bearer-warden/pkg/aws"
	"github.com/boogy/bearer-warden/pkg/config"
	"github.com/boogy/bearer-warden/pkg/keys"
	"github.com/boogy/bearer-warden/pkg/keystore"
	"github.com/boogy/bearer-warden/pkg/middleware"
)

// Bootstrap contains all the initialized components needed by the HTTP routes
type Bootstrap struct {
	Config *config.Config
	Store  *keystore.Store
	Auth   *middleware.Authenticator
	Logger *slog.Logger
}

// NewBootstrap loads the configured key material, builds the key store and
// the authenticator. source may be nil, in which case local paths are read
// from disk and s3:// paths through an S3 client built from cfg.AWS.
func NewBootstrap(ctx context.Context, cfg *config.Config, source keys.Source, logger *slog.Logger) (*Bootstrap, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if source == nil {
		var err error
		source, err = newKeySource(ctx, cfg)
		if err != nil {
			logger.Error("Failed to initialize key source", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to initialize key source: %w", err)
		}
	}

	store, err := BuildStore(ctx, cfg, keys.NewLoader(source), logger)
	if err != nil {
		logger.Error("Failed to build key store", slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Key store ready",
		slog.String("strategy", store.Kind().String()),
		slog.Int("keys", len(store.Keys())),
	)

	auth := middleware.NewAuthenticator(store, middleware.ClaimsContextKey,
		middleware.WithMaxTokenLength(cfg.Server.MaxTokenLength),
		middleware.WithLogger(logger),
	)

	return &Bootstrap{
		Config: cfg,
		Store:  store,
		Auth:   auth,
		Logger: logger,
	}, nil
}

// newKeySource only builds an S3 client when some key path needs one.
func newKeySource(ctx context.Context, cfg *config.Config) (keys.Source, error) {
	if !slices.ContainsFunc(cfg.KeyPaths(), aws.IsS3Path) {
		return keys.FileSource{}, nil
	}

	wrapper, err := aws.NewAwsServiceWrapper(ctx, cfg.AWS.Region, cfg.AWS.S3MaxObjectSize)
	if err != nil {
		return nil, err
	}
	return aws.NewKeySource(wrapper), nil
}

// ErrNoUsableKeys is returned when none of the configured list keys loaded.
var ErrNoUsableKeys = errors.New("no usable keys loaded")

// BuildStore loads the keys named by cfg.Keys and wraps them in the store
// matching the configured strategy.
func BuildStore(ctx context.Context, cfg *config.Config, loader *keys.Loader, logger *slog.Logger) (*keystore.Store, error) {
	switch cfg.Keys.Strategy {
	case config.StrategySingle:
		var (
			key *keys.Key
			err error
		)
		if len(cfg.Keys.PublicKeys) == 1 {
			key, err = loader.LoadPublicKey(ctx, cfg.Keys.PublicKeys[0])
		} else if len(cfg.Keys.PrivateKeys) == 1 {
			key, err = loader.LoadPrivateKey(ctx, cfg.Keys.PrivateKeys[0])
		} else {
			return nil, errors.New("single strategy needs exactly one key")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load key: %w", err)
		}
		return keystore.FromKey(key), nil

	case config.StrategyList:
		list := loader.LoadPublicKeys(ctx, cfg.Keys.PublicKeys)
		list = append(list, loader.LoadPrivateKeys(ctx, cfg.Keys.PrivateKeys)...)

		configured := len(cfg.Keys.PublicKeys) + len(cfg.Keys.PrivateKeys)
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: 0 of %d keys", ErrNoUsableKeys, configured)
		}
		if len(list) < configured {
			logger.Warn("Some configured keys could not be loaded",
				slog.Int("loaded", len(list)),
				slog.Int("configured", configured),
			)
		}
		return keystore.FromKeys(list), nil

	case config.StrategyIssuer:
		issuers := make(map[string]*keys.Key, len(cfg.Keys.Issuers))
		for _, m := range cfg.Keys.Issuers {
			load := loader.LoadPublicKey
			if m.Private {
				load = loader.LoadPrivateKey
			}
			key, err := load(ctx, m.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load key %s for issuer %s: %w", m.KeyFile, m.Issuer, err)
			}
			issuers[m.Issuer] = key
		}
		return keystore.FromIssuers(issuers), nil

	default:
		return nil, fmt.Errorf("unknown key strategy '%s'", cfg.Keys.Strategy)
	}
}
