package embedcmder

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/antfly/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/antfly/pkg/embeddings/utils"
	"github.com/papercomputeco/antfly/pkg/logger"
	testutils "github.com/papercomputeco/antfly/pkg/utils/test"
	"github.com/papercomputeco/antfly/pkg/vector"
	vectorutils "github.com/papercomputeco/antfly/pkg/vector/utils"
	"github.com/papercomputeco/antfly/pkg/vectorcodec"
)

var _ = Describe("NewEmbedCmd", func() {
	It("creates a command with correct use name", func() {
		cmd := NewEmbedCmd()
		Expect(cmd.Use).To(Equal("embed <text>..."))
	})

	It("has the expected flags", func() {
		cmd := NewEmbedCmd()

		for _, name := range []string{
			"termite-target",
			"termite-model",
			"vector-store-provider",
			"vector-store-path",
			"vector-store-dimensions",
			"store",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}

		out := cmd.Flags().Lookup("out")
		Expect(out).NotTo(BeNil())
		Expect(out.Shorthand).To(Equal("o"))

		Expect(cmd.Flags().Lookup("vector-store-dimensions").DefValue).To(Equal("384"))
	})

	It("requires at least one text", func() {
		cmd := NewEmbedCmd()
		Expect(cmd.Args(cmd, nil)).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"hello"})).To(Succeed())
	})
})

var _ = Describe("embedCommander", func() {
	var (
		out      *bytes.Buffer
		embedder *testutils.MockEmbedder
		driver   *testutils.MockVectorDriver
		opened   *vectorutils.NewVectorDriverOpts
		cmder    *embedCommander
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		embedder = testutils.NewMockEmbedder()
		embedder.Embeddings["hello"] = []float32{1, 2, 3}
		embedder.Embeddings["world"] = []float32{4, 5, 6}
		driver = testutils.NewMockVectorDriver()
		opened = nil

		cmder = &embedCommander{
			termiteTarget:       "http://termite.test",
			termiteModel:        "test-model",
			vectorStoreProvider: "sqlite",
			vectorStorePath:     "/tmp/embeddings.db",
			vectorStoreDims:     3,
			out:                 out,
			logger:              logger.Nop(),
			newEmbedder: func(o *embeddingutils.NewEmbedderOpts) (embeddings.BatchEmbedder, error) {
				Expect(o.TargetURL).To(Equal("http://termite.test"))
				Expect(o.Model).To(Equal("test-model"))
				return embedder, nil
			},
			newVectorDriver: func(o *vectorutils.NewVectorDriverOpts) (vector.Driver, error) {
				opened = o
				return driver, nil
			},
		}
	})

	It("embeds all texts in one batch and prints the shape", func() {
		Expect(cmder.run(context.Background(), []string{"hello", "world"})).To(Succeed())

		Expect(embedder.Batches).To(Equal([][]string{{"hello", "world"}}))
		Expect(out.String()).To(ContainSubstring("2 x 3"))
		Expect(out.String()).To(ContainSubstring("[1.0000 2.0000 3.0000]"))
		Expect(opened).To(BeNil())
	})

	It("truncates long vectors in the preview", func() {
		embedder.Embeddings["long"] = []float32{1, 2, 3, 4, 5, 6}
		Expect(cmder.run(context.Background(), []string{"long"})).To(Succeed())
		Expect(out.String()).To(ContainSubstring("[1.0000 2.0000 3.0000 4.0000 ...]"))
	})

	It("writes the binary envelope with --out", func() {
		cmder.outPath = filepath.Join(GinkgoT().TempDir(), "hello.vec")
		Expect(cmder.run(context.Background(), []string{"hello", "world"})).To(Succeed())

		data, err := os.ReadFile(cmder.outPath)
		Expect(err).NotTo(HaveOccurred())

		m, err := vectorcodec.Decode(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(vectorcodec.Matrix{{1, 2, 3}, {4, 5, 6}}))
	})

	It("adds documents to the vector store with --store", func() {
		cmder.store = true
		Expect(cmder.run(context.Background(), []string{"hello", "world"})).To(Succeed())

		Expect(opened).NotTo(BeNil())
		Expect(opened.ProviderType).To(Equal("sqlite"))
		Expect(opened.Path).To(Equal("/tmp/embeddings.db"))
		Expect(opened.Dimensions).To(Equal(uint(3)))

		Expect(driver.Documents).To(HaveLen(2))
		Expect(driver.Documents[0].Text).To(Equal("hello"))
		Expect(driver.Documents[0].Embedding).To(Equal([]float32{1, 2, 3}))
		Expect(driver.Documents[1].Text).To(Equal("world"))
		Expect(driver.Documents[0].ID).NotTo(BeEmpty())
		Expect(driver.Documents[0].ID).NotTo(Equal(driver.Documents[1].ID))
		Expect(driver.Closed).To(BeTrue())
	})

	It("refuses to store vectors of the wrong dimension", func() {
		cmder.store = true
		cmder.vectorStoreDims = 384

		err := cmder.run(context.Background(), []string{"hello"})
		Expect(err).To(MatchError(vector.ErrDimensions))
		Expect(opened).To(BeNil())
	})

	It("returns vector store failures", func() {
		cmder.store = true
		driver.FailAdd = errors.New("disk full")

		err := cmder.run(context.Background(), []string{"hello"})
		Expect(err).To(MatchError(ContainSubstring("disk full")))
	})

	It("returns embedding failures", func() {
		embedder.FailOn = "world"

		err := cmder.run(context.Background(), []string{"hello", "world"})
		Expect(err).To(MatchError(ContainSubstring("mock embedding failure")))
		Expect(out.String()).NotTo(ContainSubstring("shape:"))
	})

	It("rejects ragged embeddings", func() {
		embedder.Embeddings["world"] = []float32{4, 5}

		err := cmder.run(context.Background(), []string{"hello", "world"})
		Expect(err).To(MatchError(vectorcodec.ErrShapeMismatch))
	})
})
