/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/androidcollector/bridge/bridgetest"
	"github.com/forensicanalysis/androidcollector/config"
)

func TestNew(t *testing.T) {
	valid := NewArtifactSpec("sms", Logical, LogicalQuery, "sms.txt", "content query --uri content://sms/")
	tests := []struct {
		name    string
		specs   []ArtifactSpec
		wantErr bool
	}{
		{"valid", []ArtifactSpec{valid}, false},
		{"empty", nil, true},
		{"duplicate id", []ArtifactSpec{valid, valid}, true},
		{"duplicate dest", []ArtifactSpec{valid, NewArtifactSpec("sms2", Logical, LogicalQuery, "sms.txt", "x")}, true},
		{"no id", []ArtifactSpec{NewArtifactSpec("", Logical, LogicalQuery, "a.txt", "x")}, true},
		{"bad category", []ArtifactSpec{NewArtifactSpec("a", "cache", LogicalQuery, "a.txt", "x")}, true},
		{"bad mode", []ArtifactSpec{NewArtifactSpec("a", Logical, "rsync", "a.txt", "x")}, true},
		{"no candidates", []ArtifactSpec{NewArtifactSpec("a", Logical, LogicalQuery, "a.txt")}, true},
		{"blank candidate", []ArtifactSpec{NewArtifactSpec("a", Logical, LogicalQuery, "a.txt", " ")}, true},
		{"absolute dest", []ArtifactSpec{NewArtifactSpec("a", Logical, LogicalQuery, "/a.txt", "x")}, true},
		{"parent dest", []ArtifactSpec{NewArtifactSpec("a", Logical, LogicalQuery, "../a.txt", "x")}, true},
		{"nested parent dest", []ArtifactSpec{NewArtifactSpec("a", Apps, SingleFile, "whatsapp/../../a", "x")}, true},
		{"dir dest", []ArtifactSpec{NewArtifactSpec("a", Apps, SingleFile, "whatsapp/", "x")}, true},
		{"sub dir dest", []ArtifactSpec{NewArtifactSpec("a", Apps, SingleFile, "whatsapp/wa.db", "x")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.specs...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMisconfigured)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCatalog_Immutable(t *testing.T) {
	candidates := []string{"/a", "/b"}
	c, err := New(NewArtifactSpec("a", Apps, SingleFile, "a", candidates...))
	require.NoError(t, err)

	candidates[0] = "/changed"
	spec, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"/a", "/b"}, spec.Candidates())

	spec.Candidates()[0] = "/changed"
	spec.candidates[0] = "/changed"
	c.Specs()[0].candidates[1] = "/changed"
	c.Ordered()[0].candidates[0] = "/changed"
	spec, _ = c.Get("a")
	assert.Equal(t, []string{"/a", "/b"}, spec.Candidates())

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestArtifactSpec_clone(t *testing.T) {
	spec := NewArtifactSpec("heavy", Images, BlockCopy, "userdata.img", "/dev/block/by-name/userdata", "/dev/block/sda").
		WithConfirmation().
		WithDescription("userdata partition").
		WithEnabled(false)

	clone := spec.clone()
	clone.candidates[0] = "/changed"

	assert.Equal(t, []string{"/dev/block/by-name/userdata", "/dev/block/sda"}, spec.Candidates())
	assert.Equal(t, spec.ID(), clone.ID())
	assert.Equal(t, spec.RelPath(), clone.RelPath())
	assert.False(t, clone.Enabled())
	assert.True(t, clone.RequiresConfirmation())
	assert.Equal(t, "userdata partition", clone.Description())
}

func TestCatalog_Ordered(t *testing.T) {
	c, err := New(
		NewArtifactSpec("img", Images, BlockCopy, "userdata.img", "/dev/block/userdata"),
		NewArtifactSpec("dcim", Media, DirectoryArchive, "DCIM.tar", "/sdcard/DCIM"),
		NewArtifactSpec("sms", Logical, LogicalQuery, "sms.txt", "content query --uri content://sms/"),
		NewArtifactSpec("db", Databases, SingleFile, "mmssms.db", "/data/data/x"),
		NewArtifactSpec("ps", System, LogicalQuery, "ps.txt", "ps -A"),
		NewArtifactSpec("calls", Logical, LogicalQuery, "calllog.txt", "content query --uri content://call_log/calls"),
	)
	require.NoError(t, err)

	var ids []string
	for _, spec := range c.Ordered() {
		ids = append(ids, spec.ID())
	}
	assert.Equal(t, []string{"sms", "calls", "ps", "db", "dcim", "img"}, ids)
}

func TestCatalog_Extend(t *testing.T) {
	c, err := New(NewArtifactSpec("sms", Logical, LogicalQuery, "sms.txt", "x"))
	require.NoError(t, err)

	extended, err := c.Extend(NewArtifactSpec("calls", Logical, LogicalQuery, "calllog.txt", "y"))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, extended.Len())

	_, err = c.Extend(NewArtifactSpec("sms", Logical, LogicalQuery, "other.txt", "y"))
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name        string
		tier        config.Tier
		wantIDs     []string
		missingIDs  []string
		disabledIDs []string
	}{
		{
			"noroot", config.NoRoot,
			[]string{"contacts", "calllog", "sms", "logcat", "dumpsys_wifi", "media_DCIM", "whatsapp_backups"},
			[]string{"sms_db", "userdata_image", "whatsapp_msgstore", "private_com.whatsapp"},
			[]string{"bugreport", "adb_backup", "media_DCIM"},
		},
		{
			"root", config.Root,
			[]string{"sms", "sms_db", "chrome_history", "whatsapp_msgstore", "private_com.whatsapp", "userdata_image", "usagestats"},
			nil,
			[]string{"userdata_image", "private_com.whatsapp", "media_DCIM"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Build(config.Default(tt.tier))
			require.NoError(t, err)
			for _, id := range tt.wantIDs {
				_, ok := c.Get(id)
				assert.True(t, ok, id)
			}
			for _, id := range tt.missingIDs {
				_, ok := c.Get(id)
				assert.False(t, ok, id)
			}
			for _, id := range tt.disabledIDs {
				spec, ok := c.Get(id)
				require.True(t, ok, id)
				assert.False(t, spec.Enabled(), id)
			}
		})
	}
}

func TestBuild_Extra(t *testing.T) {
	cfg := config.Default(config.NoRoot)
	cfg.Extra = []config.ExtraArtifact{{
		ID:                   "dumpsys_bluetooth",
		Category:             "system",
		Mode:                 "logical-query",
		Dest:                 "dumpsys_bluetooth.txt",
		Candidates:           []string{"dumpsys bluetooth_manager"},
		RequiresConfirmation: true,
	}}
	c, err := Build(cfg)
	require.NoError(t, err)
	spec, ok := c.Get("dumpsys_bluetooth")
	require.True(t, ok)
	assert.True(t, spec.Enabled())
	assert.True(t, spec.RequiresConfirmation())
	assert.Equal(t, "system/dumpsys_bluetooth.txt", spec.RelPath())

	cfg.Extra[0].Dest = "../escape"
	_, err = Build(cfg)
	assert.ErrorIs(t, err, ErrMisconfigured)

	cfg.Tier = "superuser"
	_, err = Build(cfg)
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestParsePackageList(t *testing.T) {
	out := "package:/system/app/Chrome/Chrome.apk=com.android.chrome\n" +
		"package:/data/app/~~Xa1==/com.whatsapp-Qz9==/base.apk=com.whatsapp\r\n" +
		"garbage\n"
	got := ParsePackageList(out)
	assert.Equal(t, []InstalledPackage{
		{Name: "com.android.chrome", APKPath: "/system/app/Chrome/Chrome.apk"},
		{Name: "com.whatsapp", APKPath: "/data/app/~~Xa1==/com.whatsapp-Qz9==/base.apk"},
	}, got)
}

func TestPackageSpecs(t *testing.T) {
	device := bridgetest.New()
	device.Queries["pm list packages -f"] = "package:/data/app/base.apk=com.whatsapp\npackage:/data/app/base.apk=com.whatsapp\n"

	specs, err := PackageSpecs(context.Background(), device, true)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "apps/apks/com.whatsapp.apk", specs[0].RelPath())
	assert.Equal(t, SingleFile, specs[0].Mode())
	assert.Equal(t, []string{"/data/app/base.apk"}, specs[0].Candidates())

	_, err = PackageSpecs(context.Background(), bridgetest.New(), true)
	assert.Error(t, err)
}
