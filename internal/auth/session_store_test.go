package auth

import (
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/ldelorme/crm-backoffice/internal/core/datamodel/user"
)

var _ = ginkgo.Describe("FileSessionStore", func() {
	var (
		path  string
		store *FileSessionStore
	)

	ginkgo.BeforeEach(func() {
		path = filepath.Join(ginkgo.GinkgoT().TempDir(), "nested", "session.json")
		store = NewFileSessionStore(path)
	})

	ginkgo.It("should round-trip a session, creating parent directories", func() {
		saved := &Session{
			Token:      "token-value",
			ActorID:    7,
			Department: user.DepartmentSupport,
			ExpiresAt:  time.Now().Add(time.Hour).UTC().Truncate(time.Second),
		}
		gomega.Expect(store.Save(saved)).To(gomega.Succeed())

		loaded, err := store.Load()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(loaded).NotTo(gomega.BeNil())
		gomega.Expect(loaded.Token).To(gomega.Equal("token-value"))
		gomega.Expect(loaded.ActorID).To(gomega.Equal(int64(7)))
		gomega.Expect(loaded.Department).To(gomega.Equal(user.DepartmentSupport))
		gomega.Expect(loaded.ExpiresAt).To(gomega.BeTemporally("==", saved.ExpiresAt))
	})

	ginkgo.It("should report no session when the file does not exist", func() {
		loaded, err := store.Load()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(loaded).To(gomega.BeNil())
	})

	ginkgo.It("should treat a corrupt file as no session", func() {
		gomega.Expect(os.MkdirAll(filepath.Dir(path), 0o700)).To(gomega.Succeed())
		gomega.Expect(os.WriteFile(path, []byte("{not json"), 0o600)).To(gomega.Succeed())

		loaded, err := store.Load()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(loaded).To(gomega.BeNil())
	})

	ginkgo.It("should clear a saved session and stay silent when nothing is stored", func() {
		gomega.Expect(store.Save(&Session{Token: "t", ActorID: 1})).To(gomega.Succeed())
		gomega.Expect(store.Clear()).To(gomega.Succeed())

		loaded, err := store.Load()
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(loaded).To(gomega.BeNil())

		gomega.Expect(store.Clear()).To(gomega.Succeed())
	})

	ginkgo.It("should write the session file readable by the owner only", func() {
		gomega.Expect(store.Save(&Session{Token: "t", ActorID: 1})).To(gomega.Succeed())

		info, err := os.Stat(path)
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(info.Mode().Perm()).To(gomega.Equal(os.FileMode(0o600)))
	})
})
