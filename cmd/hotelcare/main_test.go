package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelcare/internal/auth"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOTELCARE_STORAGE_DRIVER", "sqlite")
	t.Setenv("HOTELCARE_SQLITE_PATH", filepath.Join(dir, "docs.db"))
	t.Setenv("HOTELCARE_STATE_DIR", filepath.Join(dir, "state"))
	t.Setenv("HOTELCARE_LOG_LEVEL", "error")
	t.Setenv("HOTELCARE_TIMEZONE", "UTC")
	t.Setenv("HOTELCARE_EMAIL", "")
	t.Setenv("HOTELCARE_PASSWORD", "")
	return dir
}

type result struct {
	code           int
	stdout, stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	r := runCLI(t, args...)
	require.Equal(t, 0, r.code, "%v\nstdout: %s\nstderr: %s", args, r.stdout, r.stderr)
	return r.stdout
}

// firstField returns the id printed at the start of a command's output.
func firstField(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.NotEmpty(t, fields, "no output")
	return fields[0]
}

func signup(t *testing.T) {
	t.Helper()
	out := mustRun(t, "signup", "--email", "gerente@hotel.com", "--password", "segredo1")
	assert.Contains(t, out, "conta criada: gerente@hotel.com")
}

func TestHotelWorkflow(t *testing.T) {
	setupEnv(t)
	signup(t)

	hotelID := firstField(t, mustRun(t, "hotel", "add", "Hotel Palace", "--address", "Av. Principal, 123"))
	list := mustRun(t, "hotel", "list")
	assert.Contains(t, list, "Hotel Palace")
	assert.Contains(t, list, "Av. Principal, 123")

	aptID := firstField(t, mustRun(t, "apartment", "add", hotelID, "101", "--description", "Vista mar"))
	itemID := firstField(t, mustRun(t, "item", "add", hotelID, aptID, "Ar-condicionado"))
	mustRun(t, "log", "add", hotelID, aptID, itemID, "Troca do filtro")
	assert.Contains(t, mustRun(t, "item", "status", hotelID, aptID, itemID, "needs_repair"), "Requer Reparo")

	history := mustRun(t, "log", "list", hotelID, aptID, "--status", "needs_repair")
	assert.Contains(t, history, "Troca do filtro")
	assert.Contains(t, history, "Ar-condicionado")
	assert.NotContains(t, mustRun(t, "log", "list", hotelID, aptID, "--status", "ok"), "Troca do filtro")

	mustRun(t, "item", "delete", hotelID, aptID, itemID, "--yes")
	assert.Contains(t, mustRun(t, "log", "list", hotelID, aptID), "Item removido")

	refused := runCLI(t, "hotel", "delete", hotelID)
	assert.Equal(t, 1, refused.code)
	assert.Contains(t, refused.stdout, "Excluir hotel?")
	assert.Contains(t, refused.stderr, "--yes")
	assert.Contains(t, mustRun(t, "hotel", "list"), "Hotel Palace")

	mustRun(t, "hotel", "delete", hotelID, "--yes")
	assert.NotContains(t, mustRun(t, "hotel", "list"), "Hotel Palace")
}

func TestHotelUpdateKeepsUnsetFields(t *testing.T) {
	setupEnv(t)
	signup(t)
	hotelID := firstField(t, mustRun(t, "hotel", "add", "Hotel Palace", "--address", "Av. Principal, 123"))
	mustRun(t, "hotel", "update", hotelID, "--name", "Palace Hotel")
	list := mustRun(t, "hotel", "list")
	assert.Contains(t, list, "Palace Hotel")
	assert.Contains(t, list, "Av. Principal, 123")
}

func TestApartmentPhotosAreCapped(t *testing.T) {
	dir := setupEnv(t)
	signup(t)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	pic := filepath.Join(dir, "foto.png")
	require.NoError(t, os.WriteFile(pic, buf.Bytes(), 0o600))

	hotelID := firstField(t, mustRun(t, "hotel", "add", "Hotel Sol", "--photo", pic))
	aptID := firstField(t, mustRun(t, "apartment", "add", hotelID, "12", "--photo", pic+","+pic+","+pic))
	assert.Contains(t, mustRun(t, "apartment", "photos", hotelID, aptID, "--photo", pic+","+pic+","+pic), "5 fotos")
	assert.Contains(t, mustRun(t, "apartment", "list", hotelID), "5 fotos")

	mustRun(t, "apartment", "delete-photo", hotelID, aptID, "0", "--yes")
	assert.Contains(t, mustRun(t, "apartment", "list", hotelID), "4 fotos")

	notImage := filepath.Join(dir, "notas.txt")
	require.NoError(t, os.WriteFile(notImage, []byte("texto"), 0o600))
	assert.Equal(t, 1, runCLI(t, "apartment", "photos", hotelID, aptID, "--photo", notImage).code)
}

func TestTaskCommands(t *testing.T) {
	setupEnv(t)
	signup(t)
	out := mustRun(t, "task", "add", "Trocar filtro", "--due", "2099-01-02", "--priority", "high")
	assert.Contains(t, out, "02/01/2099")
	taskID := firstField(t, out)

	reminders := mustRun(t, "task", "reminders")
	assert.Contains(t, reminders, "Lembrete de Tarefa: Trocar filtro")
	assert.Contains(t, reminders, `Sua tarefa "Trocar filtro" está agendada para hoje.`)

	assert.Contains(t, mustRun(t, "task", "done", taskID), "Concluída")
	assert.NotContains(t, mustRun(t, "task", "reminders"), "Trocar filtro")
	assert.Contains(t, mustRun(t, "task", "list"), "Alta")

	assert.Equal(t, 1, runCLI(t, "task", "add", " ").code)
	assert.Equal(t, 1, runCLI(t, "task", "add", "x", "--priority", "urgent").code)
	mustRun(t, "task", "delete", taskID, "--yes")
	assert.NotContains(t, mustRun(t, "task", "list"), "Trocar filtro")
}

func TestAccountErrors(t *testing.T) {
	setupEnv(t)
	r := runCLI(t, "hotel", "list")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "nenhum usuário conectado")

	signup(t)
	r = runCLI(t, "login", "--email", "gerente@hotel.com", "--password", "errada")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "E-mail ou senha incorretos.")

	r = runCLI(t, "signup", "--email", "gerente@hotel.com", "--password", "outra123")
	assert.Contains(t, r.stderr, "Este e-mail já está em uso por outra conta.")

	assert.Contains(t, mustRun(t, "whoami"), "gerente@hotel.com")
	mustRun(t, "logout", "--yes")
	assert.Equal(t, 1, runCLI(t, "whoami").code)

	t.Setenv("HOTELCARE_EMAIL", "gerente@hotel.com")
	t.Setenv("HOTELCARE_PASSWORD", "segredo1")
	assert.Contains(t, mustRun(t, "whoami"), "gerente@hotel.com")
}

func TestProfileName(t *testing.T) {
	setupEnv(t)
	signup(t)
	assert.Contains(t, mustRun(t, "profile", "show"), "Usuário")
	mustRun(t, "profile", "name", "Ana")
	assert.Contains(t, mustRun(t, "profile", "show"), "Ana")
}

func TestSanitizeCommand(t *testing.T) {
	dir := setupEnv(t)
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"hotels":[{"name":42,"apartments":"x"}],"scheduledTasks":null}`), 0o600))

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, "sanitize", path)), &got))
	assert.Equal(t, "Usuário", got["userName"])
	hotels := got["hotels"].([]any)
	require.Len(t, hotels, 1)
	assert.Equal(t, "42", hotels[0].(map[string]any)["name"])

	mustRun(t, "sanitize", path, "--write")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"scheduledTasks": []`)
}

func TestPrefsCommands(t *testing.T) {
	setupEnv(t)
	assert.Contains(t, mustRun(t, "prefs", "get"), "theme=light")
	mustRun(t, "prefs", "set", "theme", "dark")
	assert.Equal(t, "theme=dark\n", mustRun(t, "prefs", "get", "theme"))
	assert.Equal(t, 1, runCLI(t, "prefs", "set", "theme", "neon").code)
	assert.Equal(t, 1, runCLI(t, "prefs", "get", "fontSize").code)
}

func TestUpdateCommands(t *testing.T) {
	setupEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"versionCode":2,"versionName":"1.1.0","apkUrl":"https://example.com/app.apk","notes":["Lembretes"]}`)
	}))
	defer srv.Close()
	t.Setenv("HOTELCARE_UPDATE_URL", srv.URL+"/version.json")

	out := mustRun(t, "update", "check")
	assert.Contains(t, out, "nova versão 1.1.0")
	assert.Contains(t, out, "Lembretes")
	mustRun(t, "update", "skip", "1.1.0")
	assert.Contains(t, mustRun(t, "update", "check"), "nenhuma atualização disponível")
}

func TestWatchPrintsSummaryAndServesMetrics(t *testing.T) {
	setupEnv(t)
	signup(t)
	mustRun(t, "hotel", "add", "Hotel Palace")
	out := mustRun(t, "watch", "--for", "300ms", "--metrics-addr", "127.0.0.1:0")
	assert.Contains(t, out, "métricas em http://127.0.0.1:")
	assert.Contains(t, out, "Usuário: 1 hotéis, 0 apartamentos, 0 tarefas pendentes, 0 lembretes")
}

func TestDescribeUsesLoginWording(t *testing.T) {
	assert.Equal(t, "A senha deve ter pelo menos 6 caracteres.", describe(fmt.Errorf("signup: %w", auth.ErrWeakPassword)))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}

func TestCrashReport(t *testing.T) {
	var buf bytes.Buffer
	writeCrashReport(&buf, "nil map", []byte("goroutine 1 [running]:\nmain.main()"))
	assert.Contains(t, buf.String(), "Ocorreu um erro inesperado.")
	assert.Contains(t, buf.String(), "panic: nil map")
	assert.Contains(t, buf.String(), "goroutine 1 [running]")
}
