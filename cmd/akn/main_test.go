package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const inputYAML = `identification:
  FRBRWork:
    FRBRthis: {"@value": /akn/eu/doc/2024-03-01/1/main}
    FRBRdate: {"@date": "2024-03-01", "@name": enacted}
  FRBRExpression:
    FRBRlanguage: {"@language": eng}
  FRBRManifestation:
    FRBRformat: {"@value": application/akn+xml}
references:
  - {type: TLCPerson, eId: sig1, href: /akn/ontology/person/alice, showAs: Alice}
  - {type: TLCRole, eId: role1, href: /akn/ontology/role/signer, showAs: Signer}
prefaceTitle: Agreement on shared hosting
mainBody:
  - blockTitle: Article 1
    p: {text: Hello}
  - blockTitle: Article 2
    p: {text: World}
`

// env is an isolated working area: a config pointing at a temp key store and a
// temp localfs archive.
type env struct {
	t      *testing.T
	dir    string
	config string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	cfg := "keys_dir: " + filepath.Join(dir, "keys") + "\n" +
		"archive:\n  backends:\n    - kind: localfs\n      dir: " + filepath.Join(dir, "archive") + "\n"
	path := filepath.Join(dir, "akn.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &env{t: t, dir: dir, config: path}
}

func (e *env) path(name string) string { return filepath.Join(e.dir, name) }

func (e *env) write(name, content string) string {
	e.t.Helper()
	p := e.path(name)
	require.NoError(e.t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func (e *env) run(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(append([]string{"--config", e.config}, args...), strings.NewReader(""), &out, &errOut)
	return code, out.String(), errOut.String()
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	code, out, errOut := e.run(args...)
	require.Equal(e.t, ExitSuccess, code, "akn %v\nstderr: %s", args, errOut)
	return out
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{})
	for _, path := range [][]string{
		{"assemble"}, {"payload"}, {"cid"}, {"inspect"}, {"verify"},
		{"sign", "person"}, {"sign", "software"},
		{"key", "init"}, {"key", "derive"}, {"key", "export"}, {"key", "list"},
		{"archive", "put"}, {"archive", "get"}, {"archive", "export"}, {"archive", "import"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("verbose"))
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestUsageErrors(t *testing.T) {
	e := newEnv(t)
	for name, args := range map[string][]string{
		"unknown flag":      {"assemble", "--nope", "x"},
		"missing argument":  {"payload"},
		"unreadable input":  {"assemble", e.path("missing.yaml")},
		"not a document":    {"payload", e.write("bad.xml", "<html/>")},
		"unknown yaml key":  {"assemble", e.write("bad.yaml", "title: x\n")},
		"no identification": {"assemble", e.write("noident.yaml", "mainBody:\n  - blockTitle: x\n")},
		"missing key flag":  {"sign", "software", "--signer-ref", "bot1", e.write("doc.xml", "")},
		"invalid cid":       {"archive", "get", "not-a-cid"},
		"invalid signer id": {"key", "init", "a/b"},
	} {
		t.Run(name, func(t *testing.T) {
			code, _, errOut := e.run(args...)
			assert.Equal(t, ExitUsage, code, errOut)
			assert.True(t, strings.HasPrefix(errOut, "akn: "), errOut)
		})
	}
}

func TestBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "akn.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hash_alg: md5\n"), 0o600))
	var out, errOut bytes.Buffer
	code := run([]string{"--config", path, "key", "list"}, strings.NewReader(""), &out, &errOut)
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut.String(), "load config")
}

func TestAssembleFromStdin(t *testing.T) {
	e := newEnv(t)
	var out, errOut bytes.Buffer
	code := run([]string{"--config", e.config, "assemble", "-"}, strings.NewReader(inputYAML), &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Contains(t, out.String(), `<p eId="tblock_1__p_1">`)
	assert.Contains(t, out.String(), `<TLCPerson eId="sig1"`)
	assert.NotContains(t, out.String(), "<conclusions")
}

func TestSignVerifyArchiveFlow(t *testing.T) {
	e := newEnv(t)
	input := e.write("contract.yaml", inputYAML)
	doc := e.path("contract.xml")
	signed := e.path("signed.xml")

	e.mustRun("assemble", input, "-o", doc)
	unsignedPayload := e.mustRun("payload", doc)

	e.mustRun("key", "init", "alice", "--seed-hex", strings.Repeat("01", 32))
	e.mustRun("key", "derive", "alice", "signer")
	e.mustRun("key", "init", "bot")
	list := e.mustRun("key", "list")
	assert.Equal(t, "alice\n  - signer\nbot\n", list)
	botKey := strings.TrimSpace(e.mustRun("key", "export", "bot"))
	assert.True(t, strings.HasPrefix(botKey, "ed25519:"), botKey)

	e.mustRun("sign", "person", doc,
		"--key", "alice", "--key-role", "signer",
		"--signer-ref", "sig1", "--signer-name", "Alice",
		"--role-ref", "role1", "--role-name", "Signer",
		"--timestamp", "2024-03-02T10:00:00Z",
		"-o", signed)
	e.mustRun("sign", "software", signed, "--key", "bot", "--signer-ref", "bot1", "-o", signed)

	// Signing leaves the payload unchanged.
	assert.Equal(t, unsignedPayload, e.mustRun("payload", signed))

	inspect := e.mustRun("inspect", signed)
	assert.Contains(t, inspect, "signatures: 2\n")
	assert.Contains(t, inspect, "#1 person Alice (sig1) as Signer (role1) at 2024-03-02T10:00:00Z")
	assert.Contains(t, inspect, "#2 software")

	verify := e.mustRun("verify", signed)
	assert.Contains(t, verify, "#1 person sig1: ok")
	assert.Contains(t, verify, "#2 software bot1: skipped")
	verify = e.mustRun("verify", signed, "--software-key", "bot1="+botKey)
	assert.Contains(t, verify, "#2 software bot1: ok")

	// A changed body invalidates every signature.
	text, err := os.ReadFile(signed)
	require.NoError(t, err)
	tampered := e.write("tampered.xml", strings.Replace(string(text), "Hello", "Goodbye", 1))
	code, out, _ := e.run("verify", tampered)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, out, "#1 person sig1: FAILED")

	// Archive round trip.
	put := e.mustRun("archive", "put", signed)
	fields := strings.Fields(put)
	require.Len(t, fields, 3, put)
	docCID := fields[0]
	cids := e.mustRun("cid", signed)
	assert.Contains(t, cids, "document "+docCID)
	assert.Contains(t, cids, "payload  "+strings.TrimPrefix(fields[1], "payload="))

	fetched := e.path("fetched.xml")
	e.mustRun("archive", "get", docCID, "-o", fetched)
	got, err := os.ReadFile(fetched)
	require.NoError(t, err)
	assert.Equal(t, text, got)

	// Bundle into a second archive.
	bundlePath := e.path("bundle.tar")
	e.mustRun("archive", "export", docCID, "-o", bundlePath)

	other := newEnv(t)
	imported := other.mustRun("archive", "import", bundlePath)
	assert.Equal(t, fields[0]+" "+fields[1]+"\n", imported)
	assert.Equal(t, string(text), other.mustRun("archive", "get", docCID))
}

func TestArchiveGetMissing(t *testing.T) {
	e := newEnv(t)
	code, _, errOut := e.run("archive", "get", "bafkreih7uy2yhx5gobvypuuexbvq22j2cypeqqfk2lc46225e7b3syq7pu")
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, errOut, "not found")
}

func TestVerboseLogsToStderr(t *testing.T) {
	e := newEnv(t)
	input := e.write("contract.yaml", inputYAML)
	code, _, errOut := e.run("--verbose", "assemble", input)
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, errOut, "level=DEBUG")
	assert.Contains(t, errOut, "assembled")
}
