package querycmder_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	querycmder "github.com/papercomputeco/antfly/cmd/antfly/query"
	"github.com/papercomputeco/antfly/pkg/antfly"
)

// request is what the fake antfly server saw.
type request struct {
	Path string
	Body map[string]any
}

type fakeAntfly struct {
	mu       sync.Mutex
	requests []request
	respond  func(w http.ResponseWriter, r *http.Request, n int)
}

func (f *fakeAntfly) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, request{Path: r.URL.Path, Body: body})
	n := len(f.requests)
	f.mu.Unlock()

	f.respond(w, r, n)
}

func (f *fakeAntfly) seen() []request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]request(nil), f.requests...)
}

func writeSSE(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/event-stream")
	_, _ = io.WriteString(w, body)
}

// execute runs sub under a root carrying the global flags.
func execute(sub *cobra.Command, in io.Reader, args ...string) (string, error) {
	root := &cobra.Command{Use: "antfly", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().BoolP("debug", "d", false, "")
	root.PersistentFlags().String("config-dir", "", "")
	root.PersistentFlags().String("log-file", "", "")
	root.AddCommand(sub)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if in != nil {
		root.SetIn(in)
	}
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

const helloStream = "event: hits_start\ndata: {\"status\":200}\n\n" +
	"event: hit\ndata: {\"_id\":\"doc-1\",\"_score\":0.91}\n\n" +
	"event: hits_end\ndata: {}\n\n" +
	"event: answer\ndata: \"Hello \"\n\n" +
	"event: answer\ndata: \"world\"\n\n" +
	"event: done\ndata: {\"complete\":true}\n\n"

var _ = Describe("Query commands", func() {
	var (
		fake      *fakeAntfly
		server    *httptest.Server
		configDir string
		baseURL   string
	)

	BeforeEach(func() {
		fake = &fakeAntfly{respond: func(w http.ResponseWriter, _ *http.Request, _ int) {
			writeSSE(w, helloStream)
		}}
		server = httptest.NewServer(fake)
		baseURL = server.URL + "/api/v1"
		configDir = GinkgoT().TempDir()
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("answer", func() {
		It("streams hits and the answer to stdout", func() {
			out, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "say", "hello", "--table", "docs",
				"--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())

			Expect(out).To(ContainSubstring("doc-1"))
			Expect(out).To(ContainSubstring("Hello world"))

			reqs := fake.seen()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Path).To(Equal("/api/v1/agents/answer"))
			Expect(reqs[0].Body["query"]).To(Equal("say hello"))
			Expect(reqs[0].Body["with_streaming"]).To(BeTrue())

			queries := reqs[0].Body["queries"].([]any)
			Expect(queries).To(HaveLen(1))
			Expect(queries[0].(map[string]any)["table"]).To(Equal("docs"))
		})

		It("prints the JSON answer with --no-stream", func() {
			fake.respond = func(w http.ResponseWriter, _ *http.Request, _ int) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"answer":"forty two","followup_questions":["why?"]}`)
			}

			out, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "q", "--no-stream", "--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())

			Expect(fake.seen()[0].Body["with_streaming"]).To(BeFalse())
			Expect(out).To(ContainSubstring("forty two"))
			Expect(out).To(ContainSubstring("why?"))
		})

		It("records the raw stream under the config directory", func() {
			_, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "q", "--record", "hello.sse",
				"--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(filepath.Join(configDir, "recordings", "hello.sse"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(HavePrefix("event: hits_start\n"))
			Expect(string(data)).To(ContainSubstring("event: done\ndata: {\"complete\":true}"))
		})

		It("publishes through the nop event stream", func() {
			out, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "q", "--publish", "--eventstream-provider", "nop",
				"--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Hello world"))
		})

		It("rejects an unknown event stream provider", func() {
			_, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "q", "--publish", "--eventstream-provider", "carrier-pigeon",
				"--config-dir", configDir, "--base-url", baseURL)
			Expect(err).To(MatchError(ContainSubstring("unsupported eventstream provider")))
			Expect(fake.seen()).To(BeEmpty())
		})

		It("fails after printing an error event", func() {
			fake.respond = func(w http.ResponseWriter, _ *http.Request, _ int) {
				writeSSE(w, "event: answer\ndata: \"partial\"\n\nevent: error\ndata: {\"error\":\"model overloaded\"}\n\n")
			}

			out, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "q", "--config-dir", configDir, "--base-url", baseURL)
			Expect(err).To(MatchError(ContainSubstring("error event")))
			Expect(out).To(ContainSubstring("partial"))
			Expect(out).To(ContainSubstring("model overloaded"))
		})

		It("returns transport errors", func() {
			fake.respond = func(w http.ResponseWriter, _ *http.Request, _ int) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = io.WriteString(w, "down for maintenance")
			}

			_, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "q", "--config-dir", configDir, "--base-url", baseURL)

			var terr *antfly.TransportError
			Expect(err).To(BeAssignableToTypeOf(terr))
			Expect(err.Error()).To(ContainSubstring("503"))
		})

		It("takes the base URL from the config file", func() {
			cfg := "[client]\nbase_url = \"" + baseURL + "\"\n"
			Expect(os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(cfg), 0o600)).To(Succeed())

			out, err := execute(querycmder.NewAnswerCmd(), nil,
				"answer", "q", "--config-dir", configDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Hello world"))
		})
	})

	Describe("rag", func() {
		It("requires a table", func() {
			_, err := execute(querycmder.NewRAGCmd(), nil,
				"rag", "q", "--config-dir", configDir, "--base-url", baseURL)
			Expect(err).To(MatchError(ContainSubstring("--table")))
		})

		It("uses the table endpoint for a single table", func() {
			_, err := execute(querycmder.NewRAGCmd(), nil,
				"rag", "q", "--table", "docs", "--prompt", "be brief",
				"--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())

			reqs := fake.seen()
			Expect(reqs[0].Path).To(Equal("/api/v1/tables/docs/rag"))
			Expect(reqs[0].Body["prompt"]).To(Equal("be brief"))
		})

		It("uses the multi-table endpoint for several tables", func() {
			_, err := execute(querycmder.NewRAGCmd(), nil,
				"rag", "q", "--table", "docs", "--table", "tickets",
				"--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())

			reqs := fake.seen()
			Expect(reqs[0].Path).To(Equal("/api/v1/rag"))
			Expect(reqs[0].Body["queries"]).To(HaveLen(2))
		})
	})

	Describe("chat", func() {
		It("sends a single turn when given a message", func() {
			out, err := execute(querycmder.NewChatCmd(), nil,
				"chat", "hi", "there", "--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Hello world"))

			reqs := fake.seen()
			Expect(reqs).To(HaveLen(1))
			Expect(reqs[0].Path).To(Equal("/api/v1/agents/chat"))
			Expect(reqs[0].Body["messages"]).To(Equal([]any{
				map[string]any{"role": "user", "content": "hi there"},
			}))
		})

		It("carries the history across interactive turns", func() {
			fake.respond = func(w http.ResponseWriter, _ *http.Request, n int) {
				if n == 1 {
					writeSSE(w, "event: answer\ndata: \"first answer\"\n\nevent: done\ndata: {}\n\n")
					return
				}
				writeSSE(w, "event: answer\ndata: \"second answer\"\n\nevent: done\ndata: {}\n\n")
			}

			in := strings.NewReader("first\n\nsecond\n/exit\nnever sent\n")
			out, err := execute(querycmder.NewChatCmd(), in,
				"chat", "--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("first answer"))
			Expect(out).To(ContainSubstring("second answer"))

			reqs := fake.seen()
			Expect(reqs).To(HaveLen(2))
			Expect(reqs[1].Body["messages"]).To(Equal([]any{
				map[string]any{"role": "user", "content": "first"},
				map[string]any{"role": "assistant", "content": "first answer"},
				map[string]any{"role": "user", "content": "second"},
			}))
		})

		It("keeps the history unchanged after a failed turn", func() {
			fake.respond = func(w http.ResponseWriter, _ *http.Request, n int) {
				if n == 1 {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				writeSSE(w, "event: answer\ndata: \"ok\"\n\nevent: done\ndata: {}\n\n")
			}

			in := strings.NewReader("lost\nkept\n")
			out, err := execute(querycmder.NewChatCmd(), in,
				"chat", "--config-dir", configDir, "--base-url", baseURL)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("500"))

			reqs := fake.seen()
			Expect(reqs).To(HaveLen(2))
			Expect(reqs[1].Body["messages"]).To(Equal([]any{
				map[string]any{"role": "user", "content": "kept"},
			}))
		})
	})
})
