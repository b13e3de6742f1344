// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package aws

import (
	"context"
	"testing"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAWSConfig_Region(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent")

	cfg, err := LoadAWSConfig(context.Background(), WithRegion("eu-west-1"))
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestWithEndpoint(t *testing.T) {
	var o s3v2.Options
	WithEndpoint("")(&o)
	assert.Nil(t, o.BaseEndpoint)
	assert.False(t, o.UsePathStyle)

	WithEndpoint("http://localhost:9000")(&o)
	assert.Equal(t, "http://localhost:9000", awsv2.ToString(o.BaseEndpoint))
	assert.True(t, o.UsePathStyle)
}
