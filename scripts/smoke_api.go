package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // No timeout, chat can be slow on local models
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func uploadFile(token, filename, mimeType string, content []byte) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, nil, err
	}
	part.Write(content)
	writer.Close()

	req, err := http.NewRequest("POST", baseURL+"/document/v1/upload", &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func dataField(body []byte, key string) string {
	var envelope map[string]interface{}
	json.Unmarshal(body, &envelope)
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		if v, ok := data[key].(string); ok {
			return v
		}
	}
	return ""
}

func main() {
	token := os.Getenv("SMOKE_TOKEN")
	if token == "" {
		color.Red("SMOKE_TOKEN is required (a valid access token from /auth/v1/login)")
		os.Exit(1)
	}

	color.Cyan("🚀 Starting Document + Chat API Smoke Test\n")

	// 1. Upload a small text document
	color.Yellow("\n[USER] 1. Upload text document")
	content := []byte("The quarterly report covers revenue growth, churn, and the new onboarding flow.")
	resp, body, err := uploadFile(token, "report.txt", "text/plain", content)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	documentID := dataField(body, "id")
	if documentID == "" {
		color.Red("No document id returned")
		os.Exit(1)
	}
	fmt.Printf("Document ID: %s\n", documentID)

	// 2. Poll until processing finishes
	color.Yellow("\n[USER] 2. Poll document status")
	status := "processing"
	for i := 0; i < 30 && status == "processing"; i++ {
		time.Sleep(2 * time.Second)
		resp, body, err = sendRequest("GET", "/document/v1/"+documentID, token, nil)
		if err != nil {
			color.Red("Failed: %v", err)
			os.Exit(1)
		}
		status = dataField(body, "status")
		fmt.Printf("  status=%s\n", status)
	}
	if status != "completed" {
		color.Red("Document did not complete (status=%s)", status)
		os.Exit(1)
	}
	color.Green("Processing completed")
	var showResp map[string]interface{}
	json.Unmarshal(body, &showResp)
	prettyPrint(showResp)

	// 3. Create a chat session on the document
	color.Yellow("\n[USER] 3. Create chat session")
	resp, body, err = sendRequest("POST", "/chatbot/v1/sessions", token, map[string]interface{}{
		"document_id": documentID,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	sessionID := dataField(body, "id")
	if sessionID == "" {
		color.Red("No session id returned")
		os.Exit(1)
	}
	fmt.Printf("Session ID: %s\n", sessionID)

	// 4. Ask a question about the document
	color.Yellow("\n[USER] 4. Send chat message")
	resp, body, err = sendRequest("POST", "/chatbot/v1/chat", token, map[string]interface{}{
		"chat_session_id": sessionID,
		"chat":            "What does the quarterly report cover?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	var chatResp map[string]interface{}
	json.Unmarshal(body, &chatResp)
	prettyPrint(chatResp)

	// 5. Cleanup
	color.Yellow("\n[USER] 5. Cleanup: delete session and document")
	resp, _, err = sendRequest("DELETE", "/chatbot/v1/sessions/"+sessionID, token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Session delete: %s", resp.Status)
	}
	resp, _, err = sendRequest("DELETE", "/document/v1/"+documentID, token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
	} else {
		color.Green("Document delete: %s", resp.Status)
	}

	color.Cyan("\n✅ Smoke Test Complete")
}
