package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	idlocal "pet-recovery/internal/adapters/identity/local"
	"pet-recovery/internal/router"
)

// PNG transparente de 1x1, suficiente para pasar el sniffing de tipo.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	provider := idlocal.New(idlocal.Options{Secret: "test-secret"})
	h, err := router.NewRouter(router.Options{
		Identity:         provider,
		UploadDir:        t.TempDir(),
		PublicBaseURL:    "http://api.test",
		FrontendBaseURL:  "https://miapp.com",
		StoreRetryDelay:  time.Millisecond,
		ExistsRetryDelay: time.Millisecond,
		NotifyRetryDelay: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return httptest.NewServer(h)
}

func TestHTTP_EndToEnd_RegisterPetScanNotify(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	// 1) Registro de usuario
	uid, token := registerUser(t, ts.URL, "Fernanda", "fer@example.com", "secreta1")

	// 2) Login con contraseña equivocada => 401 con cuerpo exacto
	{
		st, body := doReq(t, ts.URL, "POST", "/login", "", map[string]any{
			"email":    "fer@example.com",
			"password": "equivocada",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 bad login, got %d body=%s", st, string(body))
		}
		var resp map[string]string
		_ = json.Unmarshal(body, &resp)
		if resp["error"] != "Credenciales inválidas" {
			t.Fatalf("unexpected bad-login body: %s", string(body))
		}
	}

	// 3) Login correcto => token y conteo de no leídas en cero
	{
		st, body := doReq(t, ts.URL, "POST", "/login", "", map[string]any{
			"email":    "fer@example.com",
			"password": "secreta1",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
		}
		var resp struct {
			Token       string `json:"token"`
			UserID      string `json:"user_id"`
			UnreadCount int    `json:"unread_count"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Token == "" || resp.UserID != uid {
			t.Fatalf("unexpected login body: %s", string(body))
		}
		if resp.UnreadCount != 0 {
			t.Fatalf("expected 0 unread on fresh login, got %d", resp.UnreadCount)
		}
	}

	// 4) Mascota sin nombre => 400
	{
		st, _ := doReq(t, ts.URL, "POST", "/users/"+uid+"/pets", token, map[string]any{
			"name": "   ",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 missing name, got %d", st)
		}
	}

	// 5) Foto con tipo no permitido => 415 y nada persistido
	{
		st, _ := doReq(t, ts.URL, "POST", "/users/"+uid+"/pets", token, map[string]any{
			"name":  "Rocky",
			"photo": "data:text/plain;base64,aG9sYQ==",
		})
		if st != http.StatusUnsupportedMediaType {
			t.Fatalf("expected 415 bad photo type, got %d", st)
		}

		st, body := doReq(t, ts.URL, "GET", "/users/"+uid+"/pets", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list pets, got %d", st)
		}
		var items []map[string]any
		_ = json.Unmarshal(body, &items)
		if len(items) != 0 {
			t.Fatalf("expected no pets after rejected photo, got %d", len(items))
		}
	}

	// 6) Alta correcta con foto => QR apuntando a /scan/<id>
	petID := createPet(t, ts.URL, uid, token, map[string]any{
		"name":  "Rocky",
		"photo": "data:image/png;base64," + tinyPNG,
	})

	// 7) Escaneo sin coordenadas => 400
	{
		st, body := doReq(t, ts.URL, "POST", "/scan/"+petID, "", map[string]any{
			"message": "lo vi en el parque",
		})
		if st != http.StatusBadRequest {
			t.Fatalf("expected 400 scan without coords, got %d body=%s", st, string(body))
		}
	}

	// 8) Escaneo de mascota desconocida => igual 200 con mensaje exacto
	{
		st, body := doReq(t, ts.URL, "POST", "/scan/no-existe", "", map[string]any{
			"latitude":  -12.0464,
			"longitude": -77.0428,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 scan unknown pet, got %d body=%s", st, string(body))
		}
		var resp map[string]string
		_ = json.Unmarshal(body, &resp)
		if resp["message"] != "Ubicación registrada correctamente" {
			t.Fatalf("unexpected scan body: %s", string(body))
		}
	}

	// 9) Escaneo real => notificación para el dueño
	{
		st, _ := doReq(t, ts.URL, "POST", "/scan/"+petID, "", map[string]any{
			"latitude":  -12.0464,
			"longitude": -77.0428,
			"message":   "está conmigo, llámame",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 scan, got %d", st)
		}
	}

	// 10) El dueño ve la notificación, no leída
	var notifID string
	{
		st, body := doReq(t, ts.URL, "GET", "/users/"+uid+"/notifications", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list notifications, got %d body=%s", st, string(body))
		}
		var resp struct {
			Notifications []struct {
				ID          string  `json:"id"`
				PetID       string  `json:"pet_id"`
				PetName     string  `json:"pet_name"`
				Message     string  `json:"message"`
				Latitude    float64 `json:"latitude"`
				UserMessage string  `json:"user_message"`
				Type        string  `json:"type"`
				Leido       bool    `json:"leido"`
			} `json:"notifications"`
			UnreadCount int `json:"unread_count"`
		}
		_ = json.Unmarshal(body, &resp)
		if len(resp.Notifications) != 1 || resp.UnreadCount != 1 {
			t.Fatalf("expected 1 unread notification, body=%s", string(body))
		}
		n := resp.Notifications[0]
		if n.PetID != petID || n.PetName != "Rocky" || n.Leido || n.Type != "pet_scanned" {
			t.Fatalf("unexpected notification: %+v", n)
		}
		if n.UserMessage != "está conmigo, llámame" {
			t.Fatalf("expected user message preserved, got %q", n.UserMessage)
		}
		if !strings.Contains(n.Message, "Rocky") {
			t.Fatalf("expected pet name in message, got %q", n.Message)
		}
		notifID = n.ID
	}

	// 11) Ubicaciones del dueño
	{
		st, body := doReq(t, ts.URL, "GET", "/users/"+uid+"/locations", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 locations, got %d body=%s", st, string(body))
		}
		var items []struct {
			PetID   string `json:"pet_id"`
			PetName string `json:"pet_name"`
		}
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].PetID != petID || items[0].PetName != "Rocky" {
			t.Fatalf("unexpected locations: %s", string(body))
		}
	}

	// 12) Marcar individual como leída
	{
		st, body := doReq(t, ts.URL, "PUT", "/users/"+uid+"/notifications/"+notifID, token, map[string]any{
			"leido": true,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 set read, got %d body=%s", st, string(body))
		}
	}

	// 13) Segundo escaneo + mark-all-read: idempotente
	{
		st, _ := doReq(t, ts.URL, "POST", "/scan/"+petID, "", map[string]any{
			"latitude":  -12.05,
			"longitude": -77.05,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 second scan, got %d", st)
		}

		st, body := doReq(t, ts.URL, "PUT", "/users/"+uid+"/notifications/mark-all-read", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 mark-all-read, got %d body=%s", st, string(body))
		}
		var resp struct {
			Count int `json:"count"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Count != 1 {
			t.Fatalf("expected count=1 on first mark-all-read, got %d", resp.Count)
		}

		st, body = doReq(t, ts.URL, "PUT", "/users/"+uid+"/notifications/mark-all-read", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 repeated mark-all-read, got %d", st)
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Count != 0 {
			t.Fatalf("expected count=0 on repeat, got %d", resp.Count)
		}
	}

	// 14) Estadísticas tras dos escaneos, todas leídas
	{
		st, body := doReq(t, ts.URL, "GET", "/users/"+uid+"/notifications/stats", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 stats, got %d body=%s", st, string(body))
		}
		var resp struct {
			Total  int `json:"total"`
			Unread int `json:"unread"`
			Scans  int `json:"scans"`
			Today  int `json:"today"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Total != 2 || resp.Unread != 0 || resp.Scans != 2 || resp.Today != 2 {
			t.Fatalf("unexpected stats: %s", string(body))
		}
	}

	// 15) Perfil público de la mascota, sin auth
	{
		st, body := doReq(t, ts.URL, "GET", "/pets/"+petID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 public pet, got %d body=%s", st, string(body))
		}
		var resp struct {
			Name  string `json:"name"`
			Owner *struct {
				Email string `json:"email"`
			} `json:"owner"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Name != "Rocky" || resp.Owner == nil || resp.Owner.Email != "fer@example.com" {
			t.Fatalf("unexpected public pet: %s", string(body))
		}
	}
}

func TestHTTP_NotificationsOrder_NewestFirst(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	uid, token := registerUser(t, ts.URL, "Marco", "marco@example.com", "secreta1")
	firstPet := createPet(t, ts.URL, uid, token, map[string]any{"name": "Luna"})
	secondPet := createPet(t, ts.URL, uid, token, map[string]any{"name": "Max"})

	for _, petID := range []string{firstPet, secondPet} {
		st, _ := doReq(t, ts.URL, "POST", "/scan/"+petID, "", map[string]any{
			"latitude":  -12.1,
			"longitude": -77.1,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 scan, got %d", st)
		}
		time.Sleep(5 * time.Millisecond) // separa los timestamps
	}

	st, body := doReq(t, ts.URL, "GET", "/users/"+uid+"/notifications", token, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list, got %d", st)
	}
	var resp struct {
		Notifications []struct {
			PetName string `json:"pet_name"`
		} `json:"notifications"`
	}
	_ = json.Unmarshal(body, &resp)
	if len(resp.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, body=%s", string(body))
	}
	if resp.Notifications[0].PetName != "Max" || resp.Notifications[1].PetName != "Luna" {
		t.Fatalf("expected newest first, got %s", string(body))
	}
}

func TestHTTP_OwnershipAndAuth(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	uidA, tokenA := registerUser(t, ts.URL, "Ana", "ana@example.com", "secreta1")
	uidB, _ := registerUser(t, ts.URL, "Beto", "beto@example.com", "secreta1")

	// Sin token => 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/users/"+uidA+"/pets", "", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 without token, got %d", st)
		}
	}

	// Token de A sobre recursos de B => 403
	{
		st, _ := doReq(t, ts.URL, "GET", "/users/"+uidB+"/pets", tokenA, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 cross-user, got %d", st)
		}
	}

	// Token basura => 401
	{
		st, _ := doReq(t, ts.URL, "GET", "/users/"+uidA+"/pets", "no-es-un-jwt", nil)
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 with bad token, got %d", st)
		}
	}
}

func TestHTTP_ProfileUpdateAndPassword(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	uid, token := registerUser(t, ts.URL, "Carla", "carla@example.com", "secreta1")

	// Perfil inicial
	{
		st, body := doReq(t, ts.URL, "GET", "/users/"+uid+"/profile", token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 profile, got %d body=%s", st, string(body))
		}
		var resp struct {
			Nombre string `json:"nombre"`
			Email  string `json:"email"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Nombre != "Carla" || resp.Email != "carla@example.com" {
			t.Fatalf("unexpected profile: %s", string(body))
		}
	}

	// Actualizar teléfono y correo
	{
		st, body := doReq(t, ts.URL, "PUT", "/users/"+uid+"/profile", token, map[string]any{
			"email": "carla.nueva@example.com",
			"phone": "+51 999 888 777",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 update profile, got %d body=%s", st, string(body))
		}
		var resp struct {
			Email string `json:"email"`
			Phone string `json:"phone"`
		}
		_ = json.Unmarshal(body, &resp)
		if resp.Email != "carla.nueva@example.com" || resp.Phone != "+51 999 888 777" {
			t.Fatalf("unexpected updated profile: %s", string(body))
		}
	}

	// Cambio de contraseña con actual incorrecta => 401
	{
		st, _ := doReq(t, ts.URL, "PUT", "/users/"+uid+"/password", token, map[string]any{
			"currentPassword": "equivocada",
			"newPassword":     "nueva123",
		})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 wrong current password, got %d", st)
		}
	}

	// Cambio correcto y login con la nueva
	{
		st, _ := doReq(t, ts.URL, "PUT", "/users/"+uid+"/password", token, map[string]any{
			"currentPassword": "secreta1",
			"newPassword":     "nueva123",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 change password, got %d", st)
		}

		st, body := doReq(t, ts.URL, "POST", "/login", "", map[string]any{
			"email":    "carla.nueva@example.com",
			"password": "nueva123",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 login with new password, got %d body=%s", st, string(body))
		}
	}
}

func TestHTTP_RegisterDuplicateEmail(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	registerUser(t, ts.URL, "Diego", "diego@example.com", "secreta1")

	st, body := doReq(t, ts.URL, "POST", "/register", "", map[string]any{
		"nombre":   "Diego Dos",
		"email":    "diego@example.com",
		"password": "secreta1",
	})
	if st != http.StatusConflict {
		t.Fatalf("expected 409 duplicate email, got %d body=%s", st, string(body))
	}
}

func registerUser(t *testing.T, baseURL, nombre, email, password string) (uid, token string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/register", "", map[string]any{
		"nombre":   nombre,
		"email":    email,
		"password": password,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 register, got %d body=%s", st, string(body))
	}

	var resp struct {
		UID   string `json:"uid"`
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.UID == "" || resp.Token == "" {
		t.Fatalf("register: missing uid/token body=%s", string(body))
	}
	return resp.UID, resp.Token
}

func createPet(t *testing.T, baseURL, uid, token string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/users/"+uid+"/pets", token, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create pet, got %d body=%s", st, string(body))
	}

	var resp struct {
		PetID     string `json:"pet_id"`
		QRContent string `json:"qr_content"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.PetID == "" {
		t.Fatalf("create pet: missing pet_id body=%s", string(body))
	}
	if want := "https://miapp.com/scan/" + resp.PetID; resp.QRContent != want {
		t.Fatalf("expected qr_content %q, got %q", want, resp.QRContent)
	}
	return resp.PetID
}

func doReq(t *testing.T, baseURL, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
