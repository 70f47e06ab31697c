package model

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestBuildBatch(t *testing.T) {
	Convey("Given two identity records", t, func() {
		records := []IdentityRecord{
			{Identifiers: []Identifier{HashedEmail{Hash: "a"}}},
			{Identifiers: []Identifier{HashedPhone{Hash: "b"}}},
		}

		Convey("When building a replacing batch", func() {
			b := BuildBatch(true, records)

			Convey("Then exactly one RemoveAll leads, followed by creates in order", func() {
				So(len(b), ShouldEqual, 3)
				So(b[0], ShouldResemble, RemoveAll{})
				So(b.Replaces(), ShouldBeTrue)
				So(b[1], ShouldResemble, Create{Record: records[0]})
				So(b[2], ShouldResemble, Create{Record: records[1]})
				removes := 0
				for _, op := range b {
					if _, ok := op.(RemoveAll); ok {
						removes++
					}
				}
				So(removes, ShouldEqual, 1)
			})
		})

		Convey("When building an appending batch", func() {
			b := BuildBatch(false, records)

			So(len(b), ShouldEqual, 2)
			So(b.Replaces(), ShouldBeFalse)
		})

		Convey("When replacing with no records", func() {
			b := BuildBatch(true, nil)

			So(len(b), ShouldEqual, 1)
			So(b.Replaces(), ShouldBeTrue)
		})
	})
}

func TestParseJobStatus(t *testing.T) {
	Convey("Given remote status names", t, func() {
		So(ParseJobStatus("SUCCESS"), ShouldEqual, JobStatusSuccess)
		So(ParseJobStatus(" running "), ShouldEqual, JobStatusRunning)
		So(ParseJobStatus("UNSPECIFIED"), ShouldEqual, JobStatusUnknown)
		So(ParseJobStatus("QUEUED"), ShouldEqual, JobStatusUnknown)
		So(JobStatusPending.InProgress(), ShouldBeTrue)
		So(JobStatusFailed.InProgress(), ShouldBeFalse)
	})
}

func TestIdentifierKinds(t *testing.T) {
	Convey("Given each identifier variant", t, func() {
		So(HashedEmail{}.Kind(), ShouldEqual, KindEmail)
		So(HashedPhone{}.Kind(), ShouldEqual, KindPhone)
		So(Address{}.Kind(), ShouldEqual, KindAddress)
		So(IdentityRecord{}.Empty(), ShouldBeTrue)
	})
}
