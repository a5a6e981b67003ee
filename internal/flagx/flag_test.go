package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs_SeparateValue(t *testing.T) {
	args := []string{"-c", "conf.json", "-x", "other", "-d", "db.sqlite"}
	got := FilterArgs(args, []string{"-c"})
	assert.Equal(t, []string{"-c", "conf.json"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	args := []string{"--config=conf.json", "--other=1", "-d=db.sqlite"}
	got := FilterArgs(args, []string{"--config", "-d"})
	assert.Equal(t, []string{"--config=conf.json", "-d=db.sqlite"}, got)
}

func TestFilterArgs_FlagWithoutValue(t *testing.T) {
	args := []string{"-v", "-c", "conf.json"}
	got := FilterArgs(args, []string{"-v", "-c"})
	assert.Equal(t, []string{"-v", "-c", "conf.json"}, got)
}

func TestJsonConfigFlags(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"app", "-c", "conf.json", "-d", "other"}
	assert.Equal(t, "conf.json", JsonConfigFlags())

	os.Args = []string{"app", "-config", "full.json"}
	assert.Equal(t, "full.json", JsonConfigFlags())

	os.Args = []string{"app", "-d", "other"}
	assert.Equal(t, "", JsonConfigFlags())
}
