package pbsapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backup-console/src/dispatch"
	"backup-console/src/keys"
	"backup-console/src/pbsapi"
)

func newClient(t *testing.T, srv *httptest.Server, retries int) *pbsapi.Client {
	t.Helper()
	c, err := pbsapi.New(pbsapi.Options{
		BaseURL: srv.URL,
		Node:    "pbs1",
		Token:   "root@pam!console:s3cret",
		Retries: retries,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	_, err := pbsapi.New(pbsapi.Options{})
	assert.Error(t, err)
	_, err = pbsapi.New(pbsapi.Options{BaseURL: "ftp://host"})
	assert.Error(t, err)
}

func TestListKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api2/json/config/encryption-keys", r.URL.Path)
		assert.Equal(t, "PBSAPIToken=root@pam!console:s3cret", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"data":[{"hint":"offsite","fingerprint":"aa","kdf":"pbkdf2","created":1700000000},{"hint":"daily","fingerprint":"bb"}]}`)
	}))
	defer srv.Close()

	got, err := newClient(t, srv, 0).ListKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, keys.KeyRecord{Hint: "offsite", Fingerprint: "aa", Kdf: keys.KdfPBKDF2, Created: 1700000000}, got[0])
	assert.Equal(t, keys.KdfScrypt, got[1].Kdf)
}

func TestListKeys_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	got, err := newClient(t, srv, 2).ListKeys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 2, hits.Load())
}

func TestListKeys_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"hint":"not a list"}}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, 0).ListKeys(context.Background())
	assert.ErrorContains(t, err, "malformed")
}

func TestListJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api2/json/config/backup-jobs", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":[{"id":"daily-100","target":"100","storage":"local","type":"qemu","node":"pve1"}]}`)
	}))
	defer srv.Close()

	got, err := newClient(t, srv, 0).ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "100", got[0].TargetID)
	assert.Equal(t, "local", got[0].StorageID)
	assert.Equal(t, "qemu", got[0].Type)
}

func TestStartJob_SendsSnapshotRequestOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api2/json/nodes/pbs1/backup/100", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"storage": "local", "mode": "snapshot"}, body)
		_, _ = io.WriteString(w, `{"data":"UPID:pbs1:0000:backup"}`)
	}))
	defer srv.Close()

	task, err := newClient(t, srv, 3).StartJob(context.Background(), dispatch.Request{TargetID: "100", StorageID: "local", Mode: dispatch.ModeSnapshot})
	require.NoError(t, err)
	assert.Equal(t, "UPID:pbs1:0000:backup", task)
	assert.EqualValues(t, 1, hits.Load())
}

func TestStartJob_FailureIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"data":null,"message":"quota exceeded\n"}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, 3).StartJob(context.Background(), dispatch.Request{TargetID: "100", StorageID: "local", Mode: dispatch.ModeSnapshot})
	var re *dispatch.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.Status)
	assert.Equal(t, "quota exceeded", re.Reason)
	assert.EqualValues(t, 1, hits.Load())
}

func TestStartJob_FieldErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"errors":{"storage":"unknown storage","mode":"invalid"}}`)
	}))
	defer srv.Close()

	_, err := newClient(t, srv, 0).StartJob(context.Background(), dispatch.Request{TargetID: "100", StorageID: "x", Mode: dispatch.ModeSnapshot})
	assert.Equal(t, "mode: invalid; storage: unknown storage", dispatch.Reason(err))
}

func TestDestroyMedia(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api2/json/media/destroy", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"data":null}`)
	}))
	defer srv.Close()

	err := newClient(t, srv, 0).DestroyMedia(context.Background(), "0f8b1c3e-8d3a-4c57-9a4e-3b1a2f6d7e90", true)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"uuid": "0f8b1c3e-8d3a-4c57-9a4e-3b1a2f6d7e90", "force": true}, got)
}

func TestFakeClient(t *testing.T) {
	f := pbsapi.NewFake()
	f.FailTargets["101"] = "quota exceeded"
	f.Media["m1"] = true

	_, err := f.StartJob(context.Background(), dispatch.Request{TargetID: "101"})
	assert.Equal(t, "quota exceeded", dispatch.Reason(err))
	task, err := f.StartJob(context.Background(), dispatch.Request{TargetID: "100"})
	require.NoError(t, err)
	assert.Contains(t, task, "UPID:fake:")
	assert.Equal(t, 2, f.StartCalls)

	assert.Error(t, f.DestroyMedia(context.Background(), "m1", false))
	assert.NoError(t, f.DestroyMedia(context.Background(), "m1", true))
	assert.Error(t, f.DestroyMedia(context.Background(), "m1", true))
}

func TestStartJob_TransportFailureNamesURLOnce(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		if assert.NoError(t, err) {
			_ = conn.Close()
		}
	}))
	defer srv.Close()

	_, err := newClient(t, srv, 3).StartJob(context.Background(), dispatch.Request{TargetID: "100", StorageID: "local", Mode: dispatch.ModeSnapshot})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "pbsapi: "), err.Error())
	assert.Equal(t, 1, strings.Count(err.Error(), "/api2/json/nodes/pbs1/backup/100"), err.Error())
	assert.EqualValues(t, 1, hits.Load())
}

func TestInsecure_AcceptsSelfSignedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[]}`)
	}))
	defer srv.Close()

	strict, err := pbsapi.New(pbsapi.Options{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = strict.ListJobs(context.Background())
	assert.Error(t, err)

	insecure, err := pbsapi.New(pbsapi.Options{BaseURL: srv.URL, Insecure: true})
	require.NoError(t, err)
	_, err = insecure.ListJobs(context.Background())
	assert.NoError(t, err)
}

func TestServerVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api2/json/version", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"version":"3.2","release":"7","repoid":"abc"}}`)
	}))
	defer srv.Close()

	v, err := newClient(t, srv, 0).ServerVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3.2-7", v)
}
