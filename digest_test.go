package go2n

import (
	"strings"
	"testing"
)

func TestParseDigestChallenge(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    digestChallenge
		wantErr bool
	}{
		{
			name:   "typical device challenge",
			header: `Digest realm="2N Helios IP", nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", qop="auth", opaque="5ccc069c403ebaf9f0171e9517f40e41"`,
			want: digestChallenge{
				realm:  "2N Helios IP",
				nonce:  "dcd98b7102dd2f0e8b11d0f600bfb0c093",
				opaque: "5ccc069c403ebaf9f0171e9517f40e41",
				qop:    "auth",
			},
		},
		{
			name:   "lowercase scheme",
			header: `digest realm="r", nonce="n"`,
			want: digestChallenge{
				realm: "r",
				nonce: "n",
			},
		},
		{
			name:   "explicit MD5 algorithm",
			header: `Digest realm="r", nonce="n", algorithm=MD5, qop="auth"`,
			want: digestChallenge{
				realm:     "r",
				nonce:     "n",
				algorithm: "MD5",
				qop:       "auth",
			},
		},
		{
			name:   "qop list picks auth",
			header: `Digest realm="r", nonce="n", qop="auth-int,auth"`,
			want: digestChallenge{
				realm: "r",
				nonce: "n",
				qop:   "auth",
			},
		},
		{
			name:   "no qop means RFC 2069 mode",
			header: `Digest realm="r", nonce="n"`,
			want: digestChallenge{
				realm: "r",
				nonce: "n",
			},
		},
		{
			name:   "comma inside quoted realm",
			header: `Digest realm="Doors, Building A", nonce="n"`,
			want: digestChallenge{
				realm: "Doors, Building A",
				nonce: "n",
			},
		},
		{
			name:    "basic challenge rejected",
			header:  `Basic realm="device"`,
			wantErr: true,
		},
		{
			name:    "missing nonce rejected",
			header:  `Digest realm="r"`,
			wantErr: true,
		},
		{
			name:    "unsupported algorithm rejected",
			header:  `Digest realm="r", nonce="n", algorithm=SHA-256`,
			wantErr: true,
		},
		{
			name:    "auth-int only rejected",
			header:  `Digest realm="r", nonce="n", qop="auth-int"`,
			wantErr: true,
		},
		{
			name:    "empty header rejected",
			header:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDigestChallenge(tt.header)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !IsProtocolError(err) {
					t.Errorf("Expected protocol error, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("parseDigestChallenge failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseDigestChallenge() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestDigestResponse_RFC2617Vector checks the computation against the
// worked example in RFC 2617 section 3.5.
func TestDigestResponse_RFC2617Vector(t *testing.T) {
	c := digestChallenge{
		realm:  "testrealm@host.com",
		nonce:  "dcd98b7102dd2f0e8b11d0f600bfb0c093",
		opaque: "5ccc069c403ebaf9f0171e9517f40e41",
		qop:    "auth",
	}

	got := c.response("Mufasa", "Circle Of Life", "GET", "/dir/index.html", "0a4f113b", "00000001")

	want := "6629fae49393a05397450978507c4ef1"
	if got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
}

func TestDigestResponse_RFC2069Mode(t *testing.T) {
	c := digestChallenge{
		realm: "testrealm@host.com",
		nonce: "dcd98b7102dd2f0e8b11d0f600bfb0c093",
	}

	// HA1 = MD5("Mufasa:testrealm@host.com:Circle Of Life")
	// HA2 = MD5("GET:/dir/index.html")
	// response = MD5(HA1:nonce:HA2)
	ha1 := md5Hex("Mufasa:testrealm@host.com:Circle Of Life")
	ha2 := md5Hex("GET:/dir/index.html")
	want := md5Hex(ha1 + ":" + c.nonce + ":" + ha2)

	got := c.response("Mufasa", "Circle Of Life", "GET", "/dir/index.html", "ignored", "ignored")
	if got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
}

func TestDigestAuthorization_Header(t *testing.T) {
	c := digestChallenge{
		realm:  "2N Helios IP",
		nonce:  "dcd98b7102dd2f0e8b11d0f600bfb0c093",
		opaque: "5ccc069c403ebaf9f0171e9517f40e41",
		qop:    "auth",
	}

	header, err := c.authorization("admin", "secret", "POST", "/api/system/restart")
	if err != nil {
		t.Fatalf("authorization failed: %v", err)
	}

	for _, expected := range []string{
		`Digest username="admin"`,
		`realm="2N Helios IP"`,
		`nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093"`,
		`uri="/api/system/restart"`,
		`qop=auth`,
		`nc=00000001`,
		`opaque="5ccc069c403ebaf9f0171e9517f40e41"`,
	} {
		if !strings.Contains(header, expected) {
			t.Errorf("Authorization header missing %q\nGot: %s", expected, header)
		}
	}

	if strings.Contains(header, "secret") {
		t.Errorf("Authorization header leaked the password: %s", header)
	}
}

func TestDigestAuthorization_NoQopOmitsCnonce(t *testing.T) {
	c := digestChallenge{
		realm: "r",
		nonce: "n",
	}

	header, err := c.authorization("admin", "secret", "GET", "/api/system/info")
	if err != nil {
		t.Fatalf("authorization failed: %v", err)
	}

	if strings.Contains(header, "qop=") {
		t.Errorf("RFC 2069 header should not include qop: %s", header)
	}
	if strings.Contains(header, "cnonce=") {
		t.Errorf("RFC 2069 header should not include cnonce: %s", header)
	}
}

func TestNewCnonce_Unique(t *testing.T) {
	a, err := newCnonce()
	if err != nil {
		t.Fatalf("newCnonce failed: %v", err)
	}
	b, err := newCnonce()
	if err != nil {
		t.Fatalf("newCnonce failed: %v", err)
	}

	if len(a) != 16 {
		t.Errorf("cnonce length = %d, want 16", len(a))
	}
	if a == b {
		t.Error("consecutive cnonces should differ")
	}
}
