package adapter

import (
	"sync"

	"github.com/jpfielding/dicomsr.go/pkg/sr"
)

// Tool types of the default registry
const (
	ToolLength                = "Length"
	ToolCalibration           = "Calibration"
	ToolUltrasoundDirectional = "UltrasoundDirectionalTool"
	ToolProbe                 = "Probe"
	ToolKeyImage              = "KeyImage"
	ToolCircleROI             = "CircleROI"
	ToolRectangleROI          = "RectangleROI"
	ToolEllipticalROI         = "EllipticalROI"
	ToolBidirectional         = "Bidirectional"
	ToolAngle                 = "Angle"
	ToolCobbAngle             = "CobbAngle"
	ToolArrowAnnotate         = "ArrowAnnotate"
	ToolPlanarFreehandROI     = "PlanarFreehandROI"
)

// NewDefaultRegistry registers every tool the codec supports
func NewDefaultRegistry() (*Registry, error) {
	keyImage := TrackingTag + ":" + ToolProbe + ":" + ToolKeyImage
	return NewRegistryBuilder().
		Register(ToolLength, sr.KindLength, lengthCodec{}).
		RegisterLegacy(ToolLength).
		RegisterSubType(ToolLength, ToolCalibration).
		Register(ToolUltrasoundDirectional, sr.KindLength, ultrasoundDirectionalCodec{}).
		Register(ToolProbe, sr.KindPoint, probeCodec{}).
		RegisterLegacy(ToolProbe).
		RegisterSubType(ToolProbe, ToolKeyImage,
			WithOverride(func(base Codec) Codec { return keyImageCodec{base: base} }),
			WithAliases(
				keyImage+":"+keyImagePoint,
				keyImage+":"+keyImageSeries,
				keyImage+":"+keyImageSeriesPoint,
			),
		).
		Register(ToolCircleROI, sr.KindCircle, circleCodec{}).
		Register(ToolRectangleROI, sr.KindPolyline, rectangleCodec{}).
		Register(ToolEllipticalROI, sr.KindEllipse, ellipseCodec{}).
		RegisterLegacy(ToolEllipticalROI).
		Register(ToolBidirectional, sr.KindBidirectional, bidirectionalCodec{}).
		RegisterLegacy(ToolBidirectional).
		Register(ToolAngle, sr.KindCobbAngle, angleCodec{}).
		RegisterLegacy(ToolAngle).
		Register(ToolCobbAngle, sr.KindCobbAngle, cobbAngleCodec{}).
		RegisterLegacy(ToolCobbAngle).
		Register(ToolArrowAnnotate, sr.KindPoint, arrowCodec{}).
		RegisterLegacy(ToolArrowAnnotate).
		Register(ToolPlanarFreehandROI, sr.KindPolyline, freehandCodec{}).
		Build()
}

// Default is the default registry, built on first use
var Default = sync.OnceValues(NewDefaultRegistry)
