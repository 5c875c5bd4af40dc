package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTelemetry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Telemetry Suite")
}

var _ = Describe("Telemetry", func() {
	var (
		bus      *Bus
		recorder *Recorder
		logger   *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 4}))
		bus = NewBus(logger)
		recorder = NewRecorder(bus, logger)
	})

	Describe("Record", func() {
		It("delivers the action, outcome and fields to subscribers", func() {
			var got Event
			bus.Subscribe("create_client", func(ctx context.Context, event Event) error {
				got = event
				return nil
			})

			recorder.Record(context.Background(), "create_client", OutcomeSuccess, map[string]interface{}{
				"actor_id":  int64(10),
				"client_id": int64(3),
			})

			Expect(got).NotTo(BeNil())
			Expect(got.EventType()).To(Equal("create_client"))
			Expect(got.EventID()).NotTo(BeEmpty())

			fields, ok := got.Payload().(map[string]interface{})
			Expect(ok).To(BeTrue())
			Expect(fields).To(HaveKeyWithValue("outcome", "success"))
			Expect(fields).To(HaveKeyWithValue("actor_id", int64(10)))
		})

		It("stamps the outcome even when no fields were given", func() {
			var got Event
			bus.Subscribe("delete_user", func(ctx context.Context, event Event) error {
				got = event
				return nil
			})

			recorder.Record(context.Background(), "delete_user", OutcomeDenied, nil)

			fields := got.Payload().(map[string]interface{})
			Expect(fields).To(HaveKeyWithValue("outcome", "denied"))
		})
	})

	Describe("failure isolation", func() {
		It("keeps delivering after a handler returns an error", func() {
			delivered := false
			bus.Subscribe("update_contract", func(ctx context.Context, event Event) error {
				return errors.New("sink unavailable")
			})
			bus.Subscribe("update_contract", func(ctx context.Context, event Event) error {
				delivered = true
				return nil
			})

			Expect(func() {
				recorder.Record(context.Background(), "update_contract", OutcomeSuccess, nil)
			}).NotTo(Panic())
			Expect(delivered).To(BeTrue())
		})

		It("contains a panicking handler", func() {
			delivered := false
			bus.Subscribe("assign_event", func(ctx context.Context, event Event) error {
				panic("handler bug")
			})
			bus.Subscribe("assign_event", func(ctx context.Context, event Event) error {
				delivered = true
				return nil
			})

			Expect(func() {
				recorder.Record(context.Background(), "assign_event", OutcomeSuccess, nil)
			}).NotTo(Panic())
			Expect(delivered).To(BeTrue())
		})
	})
})
