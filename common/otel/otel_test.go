package otel_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"outreach.app/courier/common/otel"
	"outreach.app/courier/core/config"
)

var _ = Describe("otel", func() {
	It("is a no-op without an endpoint", func() {
		telemetry, err := otel.Setup(context.Background(), config.OTelConfig{ServiceName: "courier-server"}, "development")

		Expect(err).NotTo(HaveOccurred())
		Expect(telemetry).To(BeNil())
	})

	It("parses exporter headers and skips malformed pairs", func() {
		headers := otel.ParseHeaders("api-key=abc, x-team = outreach ,broken,=empty")

		Expect(headers).To(Equal(map[string]string{
			"api-key": "abc",
			"x-team":  "outreach",
		}))
	})

	It("returns no headers for an empty value", func() {
		Expect(otel.ParseHeaders("")).To(BeEmpty())
	})
})
