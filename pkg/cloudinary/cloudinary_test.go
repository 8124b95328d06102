package cloudinary

import (
	"regexp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBuildPublicIDKeepsExtension(t *testing.T) {
	id := buildPublicID("../My Essay (final).PDF")
	require.Regexp(t, regexp.MustCompile(`^My-Essay--final-[0-9a-f]{8}\.pdf$`), id)

	require.Regexp(t, regexp.MustCompile(`^submission-[0-9a-f]{8}$`), buildPublicID("???"))
}

func TestNewRequiresCredentials(t *testing.T) {
	require.False(t, Config{CloudName: "demo"}.Enabled())

	_, err := New(Config{CloudName: "demo", APIKey: "key"}, zerolog.Nop())
	require.Error(t, err)

	svc, err := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "coursehub"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "coursehub", svc.folder)
}
