// Package batepapo provides a client for the batepapo group-chat relay API.
package batepapo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Broadcast is the reserved recipient meaning "everyone in the room".
const Broadcast = "Todos"

// Message type wire values.
const (
	TypeBroadcast = "message"
	TypePrivate   = "private_message"
	TypeStatus    = "status"
)

// Participant is an active chat user.
type Participant struct {
	Name       string `json:"name"`
	LastStatus int64  `json:"lastStatus"`
}

// Message is a chat message as returned by the API.
type Message struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	Time      string `json:"time"` // HH:MM:SS
	Timestamp int64  `json:"ts"`   // Unix ms
}

// Client is a batepapo API client. Name identifies the participant on every
// call via the User header; set it with Register or directly.
type Client struct {
	BaseURL    string
	Name       string
	HTTPClient *http.Client
}

// NewClient creates a new client for the given server.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}

	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Register registers a display name and binds the client to it.
func (c *Client) Register(name string) error {
	body, _ := json.Marshal(map[string]string{"name": name})

	resp, err := c.HTTPClient.Post(c.BaseURL+"/participants", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}

	c.Name = name
	return nil
}

// Participants lists all active participants.
func (c *Client) Participants() ([]Participant, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/participants")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out []Participant
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Send posts a message. Use Broadcast as the recipient for public messages;
// private set to true addresses the recipient only.
func (c *Client) Send(to, text string, private bool) (*Message, error) {
	msgType := TypeBroadcast
	if private {
		msgType = TypePrivate
	}

	body, _ := json.Marshal(map[string]string{
		"to":   to,
		"text": text,
		"type": msgType,
	})

	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User", c.Name)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, apiError(resp)
	}

	msg := &Message{}
	if err := json.NewDecoder(resp.Body).Decode(msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Messages retrieves the newest messages visible to this client,
// newest-first, at most limit.
func (c *Client) Messages(limit int) ([]Message, error) {
	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"/messages?limit="+strconv.Itoa(limit), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User", c.Name)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var out []Message
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Heartbeat refreshes this client's presence so the sweep does not evict it.
// Call it more often than the server's presence timeout (10s by default).
func (c *Client) Heartbeat() error {
	req, err := http.NewRequest(http.MethodPost, c.BaseURL+"/status", nil)
	if err != nil {
		return err
	}
	req.Header.Set("User", c.Name)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// apiError turns an error response into a Go error, preferring the server's
// own message when it sent one.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var single struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &single) == nil && single.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, single.Error)
	}

	var multi struct {
		Errors []string `json:"errors"`
	}
	if json.Unmarshal(data, &multi) == nil && len(multi.Errors) > 0 {
		return fmt.Errorf("server returned %d: %v", resp.StatusCode, multi.Errors)
	}

	return fmt.Errorf("server returned %d", resp.StatusCode)
}
