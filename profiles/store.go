// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package profiles

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/absmach/jelly/channels"
	"github.com/absmach/jelly/outcomes"
	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	repoerr "github.com/absmach/jelly/pkg/errors/repository"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store specifies an API for managing profiles.
type Store interface {
	// Get retrieves the profile with the given OID.
	Get(ctx context.Context, id primitive.ObjectID) (Profile, error)

	// GetMany retrieves the profiles among ids keyed by OID.
	GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Profile, error)

	// GetByName retrieves the channel profile with the given name.
	GetByName(ctx context.Context, channel primitive.ObjectID, name string) (Profile, error)

	// GetNames retrieves the names of the profiles among ids.
	GetNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error)

	// ListByChannel retrieves the channel profiles whose name contains
	// nameSubstring, sorted by name. An empty substring lists all of them.
	ListByChannel(ctx context.Context, channel primitive.ObjectID, nameSubstring string) ([]Profile, error)

	// GetDefaultProfile returns the channel default profile, creating it
	// when the channel has none.
	GetDefaultProfile(ctx context.Context, channel primitive.ObjectID) GetResult

	// CreateDefault creates the channel default profile. With setToChannel
	// its OID is written into the channel config. With checkChannel the
	// channel must exist.
	CreateDefault(ctx context.Context, channel primitive.ObjectID, setToChannel, checkChannel bool) CreateResult

	// Create stores a new profile.
	Create(ctx context.Context, p Profile) CreateResult

	// Update sets the given json keys of the profile.
	Update(ctx context.Context, id primitive.ObjectID, partial map[string]any) outcomes.UpdateOutcome

	// Delete removes the profile.
	Delete(ctx context.Context, id primitive.ObjectID) bool

	// ListAttachable retrieves the channel profiles an executor with the
	// existing permissions and highest level may attach.
	ListAttachable(ctx context.Context, channel primitive.ObjectID, existing permissions.Set, highest permissions.Level) ([]Profile, error)

	// IsNameAvailable reports whether the channel has no profile named name.
	IsNameAvailable(ctx context.Context, channel primitive.ObjectID, name string) bool

	// FillPermissions sets every missing permission entry to the default of
	// the profile level. It returns the number of modified profiles.
	FillPermissions(ctx context.Context) (int64, error)
}

var _ Store = (*store)(nil)

type store struct {
	repo        Repository
	channels    ChannelResolver
	defaultName string
	timeout     time.Duration
}

// NewStore returns a profile store backed by repo. Default profiles are
// named defaultName, or DefaultProfileName when it is empty. Every
// repository call is bounded by timeout.
func NewStore(repo Repository, chs ChannelResolver, defaultName string, timeout time.Duration) Store {
	if defaultName = strings.TrimSpace(defaultName); defaultName == "" {
		defaultName = DefaultProfileName
	}

	return &store{
		repo:        repo,
		channels:    chs,
		defaultName: defaultName,
		timeout:     timeout,
	}
}

func (s *store) Get(ctx context.Context, id primitive.ObjectID) (Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.RetrieveByID(ctx, id)
}

func (s *store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Profile, error) {
	ret := make(map[primitive.ObjectID]Profile, len(ids))
	if len(ids) == 0 {
		return ret, nil
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profs, err := s.repo.RetrieveAll(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, p := range profs {
		ret[p.ID] = p
	}

	return ret, nil
}

func (s *store) GetByName(ctx context.Context, channel primitive.ObjectID, name string) (Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.RetrieveByName(ctx, channel, strings.TrimSpace(name))
}

func (s *store) GetNames(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	profs, err := s.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[primitive.ObjectID]string, len(profs))
	for id, p := range profs {
		names[id] = p.Name
	}

	return names, nil
}

func (s *store) ListByChannel(ctx context.Context, channel primitive.ObjectID, nameSubstring string) ([]Profile, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.RetrieveByChannel(ctx, channel, strings.TrimSpace(nameSubstring))
}

func (s *store) GetDefaultProfile(ctx context.Context, channel primitive.ObjectID) GetResult {
	ch, err := s.channels.Get(ctx, channel)
	switch {
	case errors.Contains(err, repoerr.ErrNotFound):
		return GetResult{Outcome: outcomes.GetChannelNotFound}
	case err != nil:
		return GetResult{Outcome: outcomes.GetExceptionOccurred, Err: err}
	}

	if oid, ok := ch.DefaultProfile(); ok {
		p, err := s.Get(ctx, oid)
		switch {
		case err == nil:
			return GetResult{Outcome: outcomes.GetCacheDB, Model: &p}
		case !errors.Contains(err, repoerr.ErrNotFound):
			return GetResult{Outcome: outcomes.GetExceptionOccurred, Err: err}
		}
		// A config OID without a profile is treated as unset.
	}

	res := s.CreateDefault(ctx, channel, true, false)
	switch {
	case res.Outcome.IsInserted():
		return GetResult{Outcome: outcomes.GetAdded, Model: res.Model}
	case res.Outcome.IsSuccess():
		return GetResult{Outcome: outcomes.GetCacheDB, Model: res.Model}
	default:
		return GetResult{Outcome: outcomes.GetDefaultProfileError, Err: res.Err}
	}
}

func (s *store) CreateDefault(ctx context.Context, channel primitive.ObjectID, setToChannel, checkChannel bool) CreateResult {
	if checkChannel {
		_, err := s.channels.Get(ctx, channel)
		switch {
		case errors.Contains(err, repoerr.ErrNotFound):
			return CreateResult{Outcome: outcomes.WriteChannelNotFound}
		case err != nil:
			return CreateResult{Outcome: outcomes.WriteExceptionOccurred, Err: err}
		}
	}

	res := s.Create(ctx, Profile{
		ChannelOID: channel,
		Name:       s.defaultName,
		Level:      permissions.LevelNormal,
	})
	if !res.Outcome.IsSuccess() || !setToChannel {
		return res
	}

	if out := s.channels.SetConfig(ctx, channel, channels.KeyDefaultProfileOID, res.Model.ID); !out.IsSuccess() {
		return CreateResult{Outcome: outcomes.WriteOnSetConfig, Err: errors.Wrap(repoerr.ErrUpdateEntity, errors.New(out.String()))}
	}

	return res
}

func (s *store) Create(ctx context.Context, p Profile) CreateResult {
	p = p.Normalize()
	if err := validate.Struct(p); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				if fe.Tag() == "required" && (fe.Field() == "Name" || fe.Field() == "ChannelOID") {
					return CreateResult{Outcome: outcomes.WriteRequiredNotFilled, Err: errors.Wrap(repoerr.ErrMalformedEntity, err)}
				}
			}
		}
		return CreateResult{Outcome: outcomes.WriteInvalidModel, Err: errors.Wrap(repoerr.ErrMalformedEntity, err)}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	saved, err := s.repo.Save(ctx, p)
	switch {
	case err == nil:
		return CreateResult{Outcome: outcomes.WriteInserted, Model: &saved}
	case errors.Contains(err, repoerr.ErrConflict):
		existing, rerr := s.repo.RetrieveByName(ctx, p.ChannelOID, p.Name)
		if rerr != nil {
			return CreateResult{Outcome: outcomes.WriteExceptionOccurred, Err: rerr}
		}
		return CreateResult{Outcome: outcomes.WriteDataExists, Model: &existing}
	default:
		return CreateResult{Outcome: outcomes.WriteExceptionOccurred, Err: err}
	}
}

func (s *store) Update(ctx context.Context, id primitive.ObjectID, partial map[string]any) outcomes.UpdateOutcome {
	for key := range partial {
		if f, ok := FieldByKey(key); ok && f.ReadOnly {
			return outcomes.UpdateUneditable
		}
	}

	var removed, invalid bool
	set := make(map[string]any, len(partial))
	for key, value := range partial {
		code, isPerm, err := ParsePermissionEntry(key, PermissionKeyPrefix)
		if isPerm {
			on, ok := value.(bool)
			switch {
			case err != nil, !ok:
				invalid = true
			default:
				set[PermissionKey(code)] = on
			}
			continue
		}

		f, ok := FieldByKey(key)
		if !ok {
			removed = true
			continue
		}
		v, err := f.Cast(value)
		if err != nil {
			invalid = true
			continue
		}
		set[key] = v
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if name, ok := set[FieldName.Key].(string); ok {
		current, err := s.repo.RetrieveByID(ctx, id)
		switch {
		case errors.Contains(err, repoerr.ErrNotFound):
			return outcomes.UpdateNotFound
		case err != nil:
			return outcomes.UpdateExceptionOccurred
		}
		other, err := s.repo.RetrieveByName(ctx, current.ChannelOID, name)
		switch {
		case err == nil && other.ID != id:
			delete(set, FieldName.Key)
			invalid = true
		case err != nil && !errors.Contains(err, repoerr.ErrNotFound):
			return outcomes.UpdateExceptionOccurred
		}
	}

	if len(set) == 0 {
		return outcomes.UpdateNotExecuted
	}

	matched, modified, err := s.repo.Update(ctx, id, set)
	if err != nil {
		return outcomes.UpdateExceptionOccurred
	}
	out := outcomes.FromCounts(matched, modified)
	switch {
	case out == outcomes.UpdateNotFound:
		return out
	case removed:
		return outcomes.UpdatePartialArgsRemoved
	case invalid:
		return outcomes.UpdatePartialArgsInvalid
	default:
		return out
	}
}

func (s *store) Delete(ctx context.Context, id primitive.ObjectID) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.Remove(ctx, id) == nil
}

func (s *store) ListAttachable(ctx context.Context, channel primitive.ObjectID, existing permissions.Set, highest permissions.Level) ([]Profile, error) {
	allowed := permissions.DefaultOverride(highest).Union(existing)
	forbidden := permissions.NewSet(permissions.AllCodes()...).Difference(allowed).Slice()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	profs, err := s.repo.RetrieveAttachable(ctx, channel, forbidden, highest)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(profs, func(i, j int) bool { return profs[i].Name < profs[j].Name })

	return profs, nil
}

func (s *store) IsNameAvailable(ctx context.Context, channel primitive.ObjectID, name string) bool {
	if name = strings.TrimSpace(name); name == "" {
		return false
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.repo.RetrieveByName(ctx, channel, name)

	return errors.Contains(err, repoerr.ErrNotFound)
}

func (s *store) FillPermissions(ctx context.Context) (int64, error) {
	var total int64
	for _, code := range permissions.AllCodes() {
		for _, level := range permissions.Levels() {
			n, err := s.fill(ctx, code, level)
			if err != nil {
				return total, err
			}
			total += n
		}
	}

	return total, nil
}

func (s *store) fill(ctx context.Context, code permissions.Code, level permissions.Level) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.FillPermission(ctx, code, level, permissions.OverrideHas(level, code))
}

func (s *store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.timeout)
}
