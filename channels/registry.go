// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package channels

import (
	"context"
	"log/slog"
	"math"
	"reflect"
	"time"

	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Config keys accepted by SetConfig.
const (
	KeyVotePromoMod      = "v-m"
	KeyVotePromoAdmin    = "v-a"
	KeyEnableAutoReply   = "e-ar"
	KeyEnableTimer       = "e-tmr"
	KeyEnableCalculator  = "e-calc"
	KeyEnableBotCommand  = "e-bot"
	KeyInfoPrivate       = "prv"
	KeyDefaultProfileOID = "d-prof"
	KeyDefaultName       = "d-name"
)

// RegistrationResult is the result of EnsureRegister.
type RegistrationResult struct {
	Outcome outcomes.WriteOutcome
	Err     error
	Channel Channel
}

// Registry specifies an API for managing channels.
type Registry interface {
	// EnsureRegister returns the channel identified by platform and token,
	// registering it when it does not exist yet.
	EnsureRegister(ctx context.Context, platform Platform, token string, defaultName *string) RegistrationResult

	// Get retrieves the channel with the given OID.
	Get(ctx context.Context, id primitive.ObjectID) (Channel, error)

	// GetByToken retrieves the channel by platform and token. With
	// autoRegister a missing channel is registered and returned.
	GetByToken(ctx context.Context, platform Platform, token string, autoRegister bool, defaultName *string) (Channel, error)

	// GetByOIDs retrieves the channels among ids.
	GetByOIDs(ctx context.Context, ids []primitive.ObjectID) ([]Channel, error)

	// GetChannelDict retrieves the channels among ids keyed by OID.
	GetChannelDict(ctx context.Context, ids []primitive.ObjectID, accessibleOnly bool) (map[primitive.ObjectID]Channel, error)

	// Search retrieves the channels whose token or default name contains
	// keyword, newest first. With hidePrivate, private channels are skipped.
	Search(ctx context.Context, keyword string, hidePrivate bool) ([]Channel, error)

	// SetConfig sets a single config value by its key.
	SetConfig(ctx context.Context, id primitive.ObjectID, key string, value any) outcomes.UpdateOutcome

	// UpdateDefaultName sets the channel default name. An empty name unsets it.
	UpdateDefaultName(ctx context.Context, id primitive.ObjectID, name string) outcomes.UpdateOutcome

	// MarkAccessibility sets whether the bot can reach the channel.
	MarkAccessibility(ctx context.Context, platform Platform, token string, accessible bool) outcomes.WriteOutcome

	// Deregister marks the channel as not accessible by the bot.
	Deregister(ctx context.Context, platform Platform, token string) outcomes.WriteOutcome

	// UpdateNickname sets the name user gave the channel.
	UpdateNickname(ctx context.Context, id, user primitive.ObjectID, name string) (Channel, outcomes.OperationOutcome)

	// Count returns the number of registered channels.
	Count(ctx context.Context, accessibleOnly bool) (int64, error)
}

type configField struct {
	cast  func(v any) (any, bool)
	rules string
}

var configFields = map[string]configField{
	KeyVotePromoMod:      {cast: castInt, rules: "gte=1"},
	KeyVotePromoAdmin:    {cast: castInt, rules: "gte=1"},
	KeyEnableAutoReply:   {cast: castBool},
	KeyEnableTimer:       {cast: castBool},
	KeyEnableCalculator:  {cast: castBool},
	KeyEnableBotCommand:  {cast: castBool},
	KeyInfoPrivate:       {cast: castBool},
	KeyDefaultProfileOID: {cast: castOID, rules: "oid"},
	KeyDefaultName:       {cast: castString, rules: "required"},
}

var _ Registry = (*registry)(nil)

type registry struct {
	repo     Repository
	cache    Cache
	timeout  time.Duration
	validate *validator.Validate
	logger   *slog.Logger
}

// NewRegistry returns a channel registry backed by repo. Single-channel reads
// go through cache. Every repository call is bounded by timeout. Cache
// failures are logged and never fail the call.
func NewRegistry(repo Repository, cache Cache, timeout time.Duration, logger *slog.Logger) Registry {
	validate := validator.New()
	_ = validate.RegisterValidation("oid", func(fl validator.FieldLevel) bool {
		id, ok := fl.Field().Interface().(primitive.ObjectID)
		return ok && !id.IsZero()
	})

	return &registry{
		repo:     repo,
		cache:    cache,
		timeout:  timeout,
		validate: validate,
		logger:   logger,
	}
}

func (r *registry) EnsureRegister(ctx context.Context, platform Platform, token string, defaultName *string) RegistrationResult {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ch, err := r.repo.RetrieveByToken(ctx, platform, token)
	switch {
	case err == nil:
		return RegistrationResult{Outcome: outcomes.WriteDataExists, Channel: ch}
	case !errors.Contains(err, repoerr.ErrNotFound):
		return RegistrationResult{Outcome: outcomes.WriteExceptionOccurred, Err: err}
	}

	cfg := DefaultConfig()
	if defaultName != nil {
		if name := NormalizeName(*defaultName); name != "" {
			cfg.DefaultName = &name
		}
	}
	ch = Channel{
		Platform:      platform,
		Token:         token,
		Config:        cfg,
		BotAccessible: true,
	}

	saved, err := r.repo.Save(ctx, ch)
	switch {
	case err == nil:
		return RegistrationResult{Outcome: outcomes.WriteInserted, Channel: saved}
	case errors.Contains(err, repoerr.ErrConflict):
		// Lost the race on the unique index.
		existing, rerr := r.repo.RetrieveByToken(ctx, platform, token)
		if rerr != nil {
			return RegistrationResult{Outcome: outcomes.WriteExceptionOccurred, Err: rerr}
		}
		return RegistrationResult{Outcome: outcomes.WriteDataExists, Channel: existing}
	default:
		return RegistrationResult{Outcome: outcomes.WriteExceptionOccurred, Err: err}
	}
}

func (r *registry) Get(ctx context.Context, id primitive.ObjectID) (Channel, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ch, err := r.cache.Retrieve(ctx, id)
	switch {
	case err == nil:
		return ch, nil
	case !errors.Contains(err, repoerr.ErrNotFound):
		r.logger.Warn("Failed to read cached channel", slog.String("channel", id.Hex()), slog.Any("error", err))
	}

	ch, err = r.repo.RetrieveByID(ctx, id)
	if err != nil {
		return Channel{}, err
	}
	if err := r.cache.Save(ctx, ch); err != nil {
		r.logger.Warn("Failed to cache channel", slog.String("channel", id.Hex()), slog.Any("error", err))
	}

	return ch, nil
}

func (r *registry) GetByToken(ctx context.Context, platform Platform, token string, autoRegister bool, defaultName *string) (Channel, error) {
	if autoRegister {
		res := r.EnsureRegister(ctx, platform, token, defaultName)
		if !res.Outcome.IsSuccess() {
			return Channel{}, errors.Wrap(repoerr.ErrViewEntity, res.Err)
		}
		return res.Channel, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.repo.RetrieveByToken(ctx, platform, token)
}

func (r *registry) GetByOIDs(ctx context.Context, ids []primitive.ObjectID) ([]Channel, error) {
	if len(ids) == 0 {
		return []Channel{}, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.repo.RetrieveAll(ctx, ids, false)
}

func (r *registry) GetChannelDict(ctx context.Context, ids []primitive.ObjectID, accessibleOnly bool) (map[primitive.ObjectID]Channel, error) {
	dict := make(map[primitive.ObjectID]Channel, len(ids))
	if len(ids) == 0 {
		return dict, nil
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	chs, err := r.repo.RetrieveAll(ctx, ids, accessibleOnly)
	if err != nil {
		return nil, err
	}
	for _, ch := range chs {
		dict[ch.ID] = ch
	}

	return dict, nil
}

func (r *registry) Search(ctx context.Context, keyword string, hidePrivate bool) ([]Channel, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.repo.RetrieveByKeyword(ctx, keyword, hidePrivate)
}

func (r *registry) SetConfig(ctx context.Context, id primitive.ObjectID, key string, value any) outcomes.UpdateOutcome {
	field, ok := configFields[key]
	if !ok {
		return outcomes.UpdateConfigNotExists
	}
	v, ok := field.cast(value)
	if !ok {
		return outcomes.UpdateConfigTypeMismatch
	}
	if field.rules != "" {
		if err := r.validate.Var(v, field.rules); err != nil {
			return outcomes.UpdateConfigValueInvalid
		}
	}

	return r.updateConfig(ctx, id, key, v)
}

func (r *registry) UpdateDefaultName(ctx context.Context, id primitive.ObjectID, name string) outcomes.UpdateOutcome {
	if name = NormalizeName(name); name == "" {
		return r.updateConfig(ctx, id, KeyDefaultName, nil)
	}

	return r.updateConfig(ctx, id, KeyDefaultName, name)
}

func (r *registry) MarkAccessibility(ctx context.Context, platform Platform, token string, accessible bool) outcomes.WriteOutcome {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ch, err := r.repo.RetrieveByToken(ctx, platform, token)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return outcomes.WriteChannelNotFound
	case err != nil:
		return outcomes.WriteExceptionOccurred
	}

	matched, modified, err := r.repo.UpdateAccessibility(ctx, platform, token, accessible)
	if err != nil {
		return outcomes.WriteExceptionOccurred
	}
	r.invalidate(ctx, ch.ID)

	switch {
	case matched == 0:
		return outcomes.WriteChannelNotFound
	case modified > 0:
		return outcomes.WriteDataUpdated
	default:
		return outcomes.WriteDataExists
	}
}

func (r *registry) Deregister(ctx context.Context, platform Platform, token string) outcomes.WriteOutcome {
	return r.MarkAccessibility(ctx, platform, token, false)
}

func (r *registry) UpdateNickname(ctx context.Context, id, user primitive.ObjectID, name string) (Channel, outcomes.OperationOutcome) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	ch, err := r.repo.UpdateNickname(ctx, id, user, NormalizeName(name))
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return Channel{}, outcomes.OpChannelNotFound
	case err != nil:
		return Channel{}, outcomes.OpError
	}
	r.invalidate(ctx, id)

	return ch, outcomes.OpCompleted
}

func (r *registry) Count(ctx context.Context, accessibleOnly bool) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.repo.Count(ctx, accessibleOnly)
}

func (r *registry) updateConfig(ctx context.Context, id primitive.ObjectID, key string, value any) outcomes.UpdateOutcome {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	matched, modified, err := r.repo.UpdateConfig(ctx, id, key, value)
	if err != nil {
		return outcomes.UpdateExceptionOccurred
	}
	r.invalidate(ctx, id)

	if out := outcomes.FromCounts(matched, modified); out != outcomes.UpdateNotFound {
		return outcomes.UpdateUpdated
	}

	return outcomes.UpdateChannelNotFound
}

func (r *registry) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.timeout)
}

func castInt(v any) (any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt32 {
			return nil, false
		}
		return int(rv.Uint()), true
	default:
		return nil, false
	}
}

func castBool(v any) (any, bool) {
	b, ok := v.(bool)
	return b, ok
}

func castString(v any) (any, bool) {
	switch s := v.(type) {
	case string:
		return NormalizeName(s), true
	case *string:
		if s == nil {
			return "", true
		}
		return NormalizeName(*s), true
	default:
		return nil, false
	}
}

func castOID(v any) (any, bool) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, true
	case *primitive.ObjectID:
		if id == nil {
			return primitive.NilObjectID, true
		}
		return *id, true
	default:
		return nil, false
	}
}

func (r *registry) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := r.cache.Remove(ctx, id); err != nil {
		r.logger.Warn("Failed to invalidate cached channel", slog.String("channel", id.Hex()), slog.Any("error", err))
	}
}
