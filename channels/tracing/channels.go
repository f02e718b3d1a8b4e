// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package tracing adds OpenTelemetry spans to channel persistence.
package tracing

import (
	"context"

	"github.com/absmach/jelly/channels"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	saveChannelOp                = "save_channel"
	retrieveChannelByIDOp        = "retrieve_channel_by_id"
	retrieveChannelByTokenOp     = "retrieve_channel_by_token"
	retrieveAllChannelsOp        = "retrieve_all_channels"
	retrieveChannelsByKeywordOp  = "retrieve_channels_by_keyword"
	updateChannelAccessibilityOp = "update_channel_accessibility"
	updateChannelNicknameOp      = "update_channel_nickname"
	updateChannelConfigOp        = "update_channel_config"
	countChannelsOp              = "count_channels"
	saveChannelCacheOp           = "save_channel_cache"
	retrieveChannelCacheOp       = "retrieve_channel_cache"
	removeChannelCacheOp         = "remove_channel_cache"
)

var (
	_ channels.Repository = (*channelRepositoryMiddleware)(nil)
	_ channels.Cache      = (*channelCacheMiddleware)(nil)
)

type channelRepositoryMiddleware struct {
	tracer trace.Tracer
	repo   channels.Repository
}

// RepositoryMiddleware adds spans to every channel repository call.
func RepositoryMiddleware(tracer trace.Tracer, repo channels.Repository) channels.Repository {
	return channelRepositoryMiddleware{
		tracer: tracer,
		repo:   repo,
	}
}

func (crm channelRepositoryMiddleware) Save(ctx context.Context, ch channels.Channel) (channels.Channel, error) {
	ctx, span := createSpan(ctx, crm.tracer, saveChannelOp,
		attribute.String("token", ch.Token),
		attribute.String("platform", ch.Platform.String()))
	defer span.End()

	return crm.repo.Save(ctx, ch)
}

func (crm channelRepositoryMiddleware) RetrieveByID(ctx context.Context, id primitive.ObjectID) (channels.Channel, error) {
	ctx, span := createSpan(ctx, crm.tracer, retrieveChannelByIDOp, attribute.String("id", id.Hex()))
	defer span.End()

	return crm.repo.RetrieveByID(ctx, id)
}

func (crm channelRepositoryMiddleware) RetrieveByToken(ctx context.Context, platform channels.Platform, token string) (channels.Channel, error) {
	ctx, span := createSpan(ctx, crm.tracer, retrieveChannelByTokenOp,
		attribute.String("token", token),
		attribute.String("platform", platform.String()))
	defer span.End()

	return crm.repo.RetrieveByToken(ctx, platform, token)
}

func (crm channelRepositoryMiddleware) RetrieveAll(ctx context.Context, ids []primitive.ObjectID, accessibleOnly bool) ([]channels.Channel, error) {
	ctx, span := createSpan(ctx, crm.tracer, retrieveAllChannelsOp,
		attribute.Int("count", len(ids)),
		attribute.Bool("accessible_only", accessibleOnly))
	defer span.End()

	return crm.repo.RetrieveAll(ctx, ids, accessibleOnly)
}

func (crm channelRepositoryMiddleware) RetrieveByKeyword(ctx context.Context, keyword string, hidePrivate bool) ([]channels.Channel, error) {
	ctx, span := createSpan(ctx, crm.tracer, retrieveChannelsByKeywordOp,
		attribute.String("keyword", keyword),
		attribute.Bool("hide_private", hidePrivate))
	defer span.End()

	return crm.repo.RetrieveByKeyword(ctx, keyword, hidePrivate)
}

func (crm channelRepositoryMiddleware) UpdateAccessibility(ctx context.Context, platform channels.Platform, token string, accessible bool) (int64, int64, error) {
	ctx, span := createSpan(ctx, crm.tracer, updateChannelAccessibilityOp,
		attribute.String("token", token),
		attribute.Bool("accessible", accessible))
	defer span.End()

	return crm.repo.UpdateAccessibility(ctx, platform, token, accessible)
}

func (crm channelRepositoryMiddleware) UpdateNickname(ctx context.Context, id, user primitive.ObjectID, name string) (channels.Channel, error) {
	ctx, span := createSpan(ctx, crm.tracer, updateChannelNicknameOp,
		attribute.String("id", id.Hex()),
		attribute.String("user", user.Hex()))
	defer span.End()

	return crm.repo.UpdateNickname(ctx, id, user, name)
}

func (crm channelRepositoryMiddleware) UpdateConfig(ctx context.Context, id primitive.ObjectID, key string, value any) (int64, int64, error) {
	ctx, span := createSpan(ctx, crm.tracer, updateChannelConfigOp,
		attribute.String("id", id.Hex()),
		attribute.String("key", key))
	defer span.End()

	return crm.repo.UpdateConfig(ctx, id, key, value)
}

func (crm channelRepositoryMiddleware) Count(ctx context.Context, accessibleOnly bool) (int64, error) {
	ctx, span := createSpan(ctx, crm.tracer, countChannelsOp)
	defer span.End()

	return crm.repo.Count(ctx, accessibleOnly)
}

type channelCacheMiddleware struct {
	tracer trace.Tracer
	cache  channels.Cache
}

// CacheMiddleware adds spans to every channel cache call.
func CacheMiddleware(tracer trace.Tracer, cache channels.Cache) channels.Cache {
	return channelCacheMiddleware{
		tracer: tracer,
		cache:  cache,
	}
}

func (ccm channelCacheMiddleware) Save(ctx context.Context, ch channels.Channel) error {
	ctx, span := createSpan(ctx, ccm.tracer, saveChannelCacheOp, attribute.String("id", ch.ID.Hex()))
	defer span.End()

	return ccm.cache.Save(ctx, ch)
}

func (ccm channelCacheMiddleware) Retrieve(ctx context.Context, id primitive.ObjectID) (channels.Channel, error) {
	ctx, span := createSpan(ctx, ccm.tracer, retrieveChannelCacheOp, attribute.String("id", id.Hex()))
	defer span.End()

	return ccm.cache.Retrieve(ctx, id)
}

func (ccm channelCacheMiddleware) Remove(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := createSpan(ctx, ccm.tracer, removeChannelCacheOp, attribute.String("id", id.Hex()))
	defer span.End()

	return ccm.cache.Remove(ctx, id)
}

func createSpan(ctx context.Context, tracer trace.Tracer, opName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, opName, trace.WithAttributes(attrs...))
}
