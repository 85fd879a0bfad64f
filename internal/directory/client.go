// Package directory habla con el servicio externo de Organizations.
// Un solo call outbound: PATCH del flag hasAccount de un empleado. Es un
// colaborador remoto no confiable; acá no hay retries (esa política es del
// caller, ver internal/account).
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/littlejohn/internal/observability/logger"
)

// HTTPError: el remoto respondió y rechazó (4xx/5xx). Distinto de un fallo
// de transporte, que llega como error pelado del http.Client.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("directory: status=%d body=%s", e.Status, e.Body)
}

// Client es el sync client hacia Organizations.
type Client struct {
	baseURL string
	http    *http.Client
}

// New arma el cliente con timeout acotado: un directorio colgado no puede
// bloquear indefinidamente un alta o baja de cuenta.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type patchBody struct {
	HasAccount bool `json:"hasAccount"`
}

// SetEmployeeHasAccount hace PATCH /organizations/{org}/employees/{emp} con
// {"hasAccount": v}, reenviando el Bearer del caller original (el
// coordinador no acuña tokens service-to-service propios). Un intento, sin
// retry: PATCHes repetidos con el mismo payload son benignos para el remoto.
func (c *Client) SetEmployeeHasAccount(ctx context.Context, orgID, employeeID string, hasAccount bool, authToken string) error {
	url := fmt.Sprintf("%s/organizations/%s/employees/%s", c.baseURL, orgID, employeeID)

	body, err := json.Marshal(patchBody{HasAccount: hasAccount})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/merge-patch+json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	log := logger.From(ctx).With(
		logger.Component("directory"),
		logger.OrgID(orgID),
		logger.EmployeeID(employeeID),
	)
	log.Debug("patch hasAccount", logger.Op(fmt.Sprintf("hasAccount=%t", hasAccount)))

	resp, err := c.http.Do(req)
	if err != nil {
		// Transporte: DNS, conexión, timeout. El caller decide abort o
		// continuar según el flujo.
		log.Warn("directory unreachable", logger.Err(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		herr := &HTTPError{Status: resp.StatusCode, Body: string(b)}
		log.Warn("directory rejected patch", logger.Status(resp.StatusCode))
		return herr
	}
	return nil
}
