package migrate

import (
	"io/fs"
	"regexp"
	"testing"

	"github.com/LavaJover/storefront-attribution-service/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "file://migrations", sourceURL("migrations"))
	assert.Equal(t, "file:///srv/attribution/migrations", sourceURL("/srv/attribution/migrations"))
	assert.Equal(t, "file://custom", sourceURL("file://custom"))
	assert.Equal(t, "embedded", sourceName(""))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations.FS, "*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestCampaignClickUserIDIsText(t *testing.T) {
	up, err := fs.ReadFile(migrations.FS, "000001_init_attribution.up.sql")
	require.NoError(t, err)

	// Subjects come from arbitrary identity providers, not just UUIDs.
	assert.Regexp(t, regexp.MustCompile(`(?m)^\s*user_id\s+TEXT,`), string(up))
	assert.NotRegexp(t, regexp.MustCompile(`(?m)^\s*user_id\s+UUID`), string(up))
}
