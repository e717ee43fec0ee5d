package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string        `env:"APP_NAME,required"`
	Key     string        `env:"APP_KEY" mask:"true"`
	Port    int           `env:"APP_PORT"`
	Ratio   float32       `env:"APP_RATIO"`
	Debug   bool          `env:"APP_DEBUG"`
	Timeout time.Duration `env:"APP_TIMEOUT"`
	Empty   string        `env:"APP_EMPTY"`
	Note    string        `env:"APP_NOTE"`
	NoTag   string
	hidden  string `env:"APP_HIDDEN"`
}

func TestMarshalEnv(t *testing.T) {
	s := &sample{
		Name:    "medichat",
		Key:     "sk-secret",
		Port:    8080,
		Ratio:   0.3,
		Timeout: 90 * time.Second,
		Note:    "two words",
		NoTag:   "ignored",
		hidden:  "ignored",
	}

	out, err := MarshalEnv(s)
	require.NoError(t, err)

	want := "APP_NAME=medichat\n" +
		"APP_KEY=sk-secret\n" +
		"APP_PORT=8080\n" +
		"APP_RATIO=0.3\n" +
		"APP_DEBUG=false\n" +
		"APP_TIMEOUT=1m30s\n" +
		"APP_NOTE=\"two words\"\n"
	assert.Equal(t, want, out)
}

func TestMarshalEnv_MaskedSecrets(t *testing.T) {
	out, err := MarshalEnv(&sample{Name: "x", Key: "sk-secret"}, WithMaskedSecrets())
	require.NoError(t, err)
	assert.Contains(t, out, "APP_KEY=********\n")
	assert.NotContains(t, out, "sk-secret")
}

func TestMarshalEnv_RejectsNonPointer(t *testing.T) {
	_, err := MarshalEnv(sample{})
	assert.Error(t, err)
}
