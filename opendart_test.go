package dart

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiveFile struct {
	name string
	body string
}

func zipArchive(t *testing.T, files ...archiveFile) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		APIKey:      "test-key",
		BaseURL:     url,
		Timeout:     5 * time.Second,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
	})
}

const accountsJSON = `{
  "status": "000",
  "message": "정상",
  "list": [
    {"rcept_no": "20241114000123", "reprt_code": "11014", "bsns_year": "2024", "corp_code": "00126380",
     "sj_div": "BS", "account_nm": "자산총계", "thstrm_amount": "500,000"},
    {"rcept_no": "20241114000123", "reprt_code": "11014", "bsns_year": "2024", "corp_code": "00126380",
     "sj_div": "IS", "account_nm": "매출액", "thstrm_amount": "300,000", "thstrm_add_amount": "900,000"},
    {"rcept_no": "20241114000123", "reprt_code": "11014", "bsns_year": "2024", "corp_code": "00126380",
     "sj_div": "IS", "account_nm": "영업이익", "thstrm_amount": "(5,000)", "thstrm_add_amount": ""}
  ]
}`

func TestFetchAccounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/fnlttSinglAcntAll.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("crtfc_key"))
		assert.Equal(t, "00126380", q.Get("corp_code"))
		assert.Equal(t, "2024", q.Get("bsns_year"))
		assert.Equal(t, "11014", q.Get("reprt_code"))
		assert.Equal(t, "CFS", q.Get("fs_div"))
		w.Write([]byte(accountsJSON)) //nolint:errcheck
	}))
	defer srv.Close()

	rows, err := newTestClient(srv.URL).FetchAccounts(context.Background(), "00126380", 2024, Q3)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	income := IncomeRows(rows)
	require.Len(t, income, 2)
	assert.Equal(t, AccountLine{Name: "매출액", Amount: 300000}, income[0].Current())
	assert.Equal(t, AccountLine{Name: "매출액", Amount: 900000}, income[0].Cumulative())
	assert.Equal(t, AccountLine{Name: "영업이익", Amount: -5000}, income[1].Cumulative(), "blank cumulative falls back to current")
}

func TestFetchAccountsStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		noData bool
	}{
		{"no data", `{"status":"013","message":"조회된 데이타가 없습니다."}`, true},
		{"bad key", `{"status":"010","message":"등록되지 않은 키입니다."}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL).FetchAccounts(context.Background(), "00126380", 2024, Q1)
			require.Error(t, err)
			assert.Equal(t, tt.noData, eris.Is(err, ErrNoData))
		})
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"000","message":"정상","list":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	rows, err := newTestClient(srv.URL).FetchAccounts(context.Background(), "00126380", 2024, Q1)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchAccounts(context.Background(), "00126380", 2024, Q1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted after 4 attempts")
	assert.Equal(t, int32(4), calls.Load(), "first attempt plus three retries")
}

func TestClientNegativeRetriesTriesOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(ClientOptions{APIKey: "test-key", BaseURL: srv.URL, MaxRetries: -1, BackoffBase: time.Millisecond})
	body, err := c.get(context.Background(), "/api/list.json", url.Values{})
	require.Error(t, err)
	assert.Nil(t, body)
	assert.Contains(t, err.Error(), "http 502")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchAccounts(context.Background(), "00126380", 2024, Q1)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchDocument(t *testing.T) {
	archive := zipArchive(t,
		archiveFile{"entity00126380_2024-09-30_lab-ko.xml", "<link/>"},
		archiveFile{"entity00126380_2024-09-30.xsd", "<schema/>"},
		archiveFile{"entity00126380_2024-09-30.xbrl", "<xbrl>instance</xbrl>"},
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/fnlttXbrl.xml", r.URL.Path)
		assert.Equal(t, "20241114000123", r.URL.Query().Get("rcept_no"))
		assert.Equal(t, "11014", r.URL.Query().Get("reprt_code"))
		w.Write(archive) //nolint:errcheck
	}))
	defer srv.Close()

	data, name, err := newTestClient(srv.URL).FetchDocument(context.Background(), "20241114000123", Q3)
	require.NoError(t, err)
	assert.Equal(t, "entity00126380_2024-09-30.xbrl", name)
	assert.Equal(t, "<xbrl>instance</xbrl>", string(data))
}

func TestFetchDocumentStatusReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><result><status>013</status><message>조회된 데이타가 없습니다.</message></result>`)) //nolint:errcheck
	}))
	defer srv.Close()

	_, _, err := newTestClient(srv.URL).FetchDocument(context.Background(), "20241114000123", Q3)
	assert.True(t, eris.Is(err, ErrNoData))
}

func TestExtractInstance(t *testing.T) {
	t.Run("xml fallback skips linkbases", func(t *testing.T) {
		archive := zipArchive(t,
			archiveFile{"report_pre.xml", "<pre/>"},
			archiveFile{"report.xml", "<xbrl/>"},
		)
		data, name, err := extractInstance(archive, DefaultMaxDocumentBytes)
		require.NoError(t, err)
		assert.Equal(t, "report.xml", name)
		assert.Equal(t, "<xbrl/>", string(data))
	})

	t.Run("size guard", func(t *testing.T) {
		archive := zipArchive(t, archiveFile{"report.xbrl", "<xbrl>0123456789</xbrl>"})
		_, _, err := extractInstance(archive, 8)
		assert.True(t, eris.Is(err, ErrDocumentTooLarge))
	})

	t.Run("no instance", func(t *testing.T) {
		archive := zipArchive(t, archiveFile{"report_lab.xml", "<lab/>"})
		_, _, err := extractInstance(archive, DefaultMaxDocumentBytes)
		assert.Error(t, err)
	})
}

func TestFetchCorpCodes(t *testing.T) {
	archive := zipArchive(t, archiveFile{"CORPCODE.xml", corpCodeXML})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/corpCode.xml", r.URL.Path)
		w.Write(archive) //nolint:errcheck
	}))
	defer srv.Close()

	reg, err := newTestClient(srv.URL).FetchCorpCodes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())
}
