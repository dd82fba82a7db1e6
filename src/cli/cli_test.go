package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backup-console/src/cli"
	"backup-console/src/config"
	"backup-console/src/fingerprint"
	"backup-console/src/jobs"
	"backup-console/src/keys"
	"backup-console/src/pbsapi"
	"backup-console/src/version"
)

const mediaID = "5d3c9a0e-2b7f-4e61-8c1d-9f0a6b2e4c73"

// run executes the CLI against srv and returns stdout, stderr and the error.
func run(t *testing.T, srv *pbsapi.FakeClient, stdin string, args ...string) (string, string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	restore := cli.SetRemoteOpenerForTest(func(cfg *config.Config) (*cli.Remote, error) {
		return &cli.Remote{Server: srv, Keys: srv, Jobs: srv, Exec: srv, Media: srv}, nil
	})
	t.Cleanup(restore)

	var out, errBuf bytes.Buffer
	cmd := cli.NewRootCmd(&out, &errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--remote", "api:https://backup.example:8007"}, args...))
	_, err := cmd.ExecuteC()
	return out.String(), errBuf.String(), err
}

func fakeServer() *pbsapi.FakeClient {
	srv := pbsapi.NewFake()
	srv.Keys = []keys.KeyRecord{
		{Hint: "offsite", Fingerprint: fingerprint.Compute([]byte("offsite")), Kdf: keys.KdfScrypt, Created: 1735689600},
		{Hint: "archive", Fingerprint: fingerprint.Compute([]byte("archive"))},
	}
	srv.Jobs = []jobs.JobRecord{
		{ID: "backup-100", TargetID: "100", StorageID: "local", Type: "qemu", Node: "pve1"},
		{ID: "backup-101", TargetID: "101", StorageID: "nas", Comment: "file server"},
	}
	return srv
}

func TestGlobalFlags_Present(t *testing.T) {
	cmd := cli.NewRootCmd(nil, nil)
	for _, name := range []string{"config", "remote", "log-level", "dry-run", "yes", "force"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing global flag --%s", name)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := cli.NewRootCmd(&out, &bytes.Buffer{})
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, version.Version+"\n", out.String())
}

func TestVersionCmd_Server(t *testing.T) {
	srv := fakeServer()
	srv.Version = "3.2-7"
	out, _, err := run(t, srv, "", "version", "--server")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\nserver api:https://backup.example:8007: 3.2-7\n", out)
}

func TestMissingRemoteIsAnError(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("BACKUP_CONSOLE_REMOTE", "")
	cmd := cli.NewRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	cmd.SetArgs([]string{"jobs", "list"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote")
}

func TestKeysList_TableSortedByHint(t *testing.T) {
	out, _, err := run(t, fakeServer(), "", "keys", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "HINT")
	assert.Contains(t, lines[0], "FINGERPRINT")
	assert.True(t, strings.HasPrefix(lines[1], "archive"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "offsite"), lines[2])
	assert.Contains(t, lines[2], fingerprint.Pretty(fingerprint.Compute([]byte("offsite"))))
	assert.Contains(t, lines[2], "2025-01-01T00:00:00Z")
}

func TestKeysList_JSON(t *testing.T) {
	out, _, err := run(t, fakeServer(), "", "keys", "list", "-o", "json")
	require.NoError(t, err)
	var recs []keys.KeyRecord
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "archive", recs[0].Hint)
	assert.Equal(t, keys.KdfScrypt, recs[1].Kdf)
}

func TestKeysList_LoadFailure(t *testing.T) {
	srv := fakeServer()
	srv.ListErr = assert.AnError
	_, _, err := run(t, srv, "", "keys", "list")
	assert.ErrorIs(t, err, keys.ErrCatalogLoadFailed)
}

func TestKeysFingerprint_FileAndStdin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "key.json")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"

	out, _, err := run(t, pbsapi.NewFake(), "", "keys", "fingerprint", path)
	require.NoError(t, err)
	assert.Equal(t, want+"  "+path+"\n", out)

	out, _, err = run(t, pbsapi.NewFake(), "abc", "keys", "fingerprint", "--pretty", "-")
	require.NoError(t, err)
	assert.Equal(t, fingerprint.Pretty(want)+"  -\n", out)

	_, stderr, err := run(t, pbsapi.NewFake(), "", "keys", "fingerprint", "--progress", path)
	require.NoError(t, err)
	assert.Contains(t, stderr, "(3/3 bytes)")
}

func TestJobsList_Formats(t *testing.T) {
	out, _, err := run(t, fakeServer(), "", "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "STORAGE")
	assert.Contains(t, out, "backup-101")
	assert.Contains(t, out, "file server")

	out, _, err = run(t, fakeServer(), "", "jobs", "list", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "target: \"100\"")
	assert.Contains(t, out, "storage: nas")

	_, _, err = run(t, fakeServer(), "", "jobs", "list", "-o", "xml")
	assert.ErrorContains(t, err, "unsupported --output")
}

func TestBackupStart_ByTargetAndJob(t *testing.T) {
	srv := fakeServer()
	out, _, err := run(t, srv, "", "backup", "start", "--target", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "OK: backup 100: backup job started")

	_, _, err = run(t, srv, "", "backup", "start", "--job", "backup-101", "--key", "offsite")
	require.NoError(t, err)

	require.Len(t, srv.Started, 2)
	assert.Equal(t, "local", srv.Started[0].StorageID)
	assert.Equal(t, "snapshot", srv.Started[1].Mode)
	assert.Equal(t, "nas", srv.Started[1].StorageID)
}

func TestBackupStart_FailureReasonShownAsIs(t *testing.T) {
	srv := fakeServer()
	srv.FailTargets["101"] = "datastore 'nas' is full"
	out, _, err := run(t, srv, "", "backup", "start", "--target", "101")
	require.Error(t, err)
	assert.Contains(t, out, "ERROR: backup 101: datastore 'nas' is full")
	assert.Equal(t, 1, srv.StartCalls)
}

func TestBackupStart_NothingSelectedSendsNothing(t *testing.T) {
	srv := fakeServer()
	_, _, err := run(t, srv, "", "backup", "start")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backup target selected")
	assert.Equal(t, 0, srv.StartCalls)

	_, _, err = run(t, srv, "", "backup", "start", "--target", "999")
	assert.ErrorContains(t, err, "no job matches")

	_, _, err = run(t, srv, "", "backup", "start", "--target", "100", "--key", "missing")
	assert.ErrorIs(t, err, keys.ErrUnknownKey)
	assert.Equal(t, 0, srv.StartCalls)
}

func TestBackupStart_DryRun(t *testing.T) {
	srv := fakeServer()
	out, _, err := run(t, srv, "", "--dry-run", "backup", "start", "--target", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "[dry-run] would start backup of 100 to local")
	assert.Equal(t, 0, srv.StartCalls)
}

func TestMediaDestroy(t *testing.T) {
	srv := fakeServer()
	srv.Media[mediaID] = true

	_, _, err := run(t, srv, "n\n", "media", "destroy", mediaID)
	assert.ErrorContains(t, err, "not confirmed")
	assert.Empty(t, srv.Destroyed)

	out, _, err := run(t, srv, "y\n", "media", "destroy", mediaID)
	require.Error(t, err)
	assert.Contains(t, out, "still part of a media set")

	out, _, err = run(t, srv, "", "--yes", "--force", "media", "destroy", mediaID)
	require.NoError(t, err)
	assert.Contains(t, out, "OK: media-destroy "+mediaID)
	assert.Equal(t, []string{mediaID}, srv.Destroyed)
}

func TestMetricsTextfileWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup-console.prom")
	t.Setenv("BACKUP_CONSOLE_METRICS_TEXTFILE", path)
	_, _, err := run(t, fakeServer(), "", "backup", "start", "--target", "100")
	require.NoError(t, err)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "backup_console_job_dispatches_total")
}
