package glview

import (
	"fmt"
	"strconv"

	"github.com/olivier-w/osciline/internal/detect"
	"github.com/olivier-w/osciline/internal/media"
	"github.com/olivier-w/osciline/internal/params"
	"github.com/olivier-w/osciline/internal/wave"
)

const vertexShader = `
precision highp float;
attribute vec2 a_position;
uniform mat4 u_transform;
varying vec2 v_uv;
void main(void) {
  gl_Position = u_transform * vec4(a_position, 0.0, 1.0);
  // v grows downwards like the exported document.
  v_uv = vec2(a_position.x * 0.5 + 0.5, 0.5 - a_position.y * 0.5);
}
` + "\x00"

// fragmentTemplate evaluates every line for the pixel, mirroring
// raster.Renderer. GLSL ES 1.00 loops need constant bounds, so the row and
// harmonic limits are baked in and the uniforms break out early.
const fragmentTemplate = `
precision highp float;
#define MAX_ROWS %d
#define MAX_HARMONICS %d
#define HASH_SCALE %s
#define HASH_GAIN %s
#define DISRUPTION %s
#define TWO_PI 6.283185307179586

uniform sampler2D u_tex;
uniform sampler2D u_detections;
uniform float u_hasTex;
uniform float u_numDetections;
uniform float u_rows;
uniform float u_weight;
uniform float u_brightness;
uniform float u_time;
uniform float u_amplitude;
uniform float u_frequency;
uniform float u_complexity;
uniform float u_desync;
uniform vec3 u_lineColor;
uniform vec3 u_background;
uniform vec2 u_resolution;
varying vec2 v_uv;

float hash(float seed) {
  return fract(sin(seed * HASH_SCALE) * HASH_GAIN);
}

float displacement(float u, float line) {
  if (u_complexity < 1.0 || u_amplitude <= 0.0) {
    return 0.0;
  }
  float stability = 1.0 / (1.0 + u_amplitude * 0.5);
  float linePhase = hash(line) * TWO_PI * u_desync * stability;
  float rate = 20.0 / (1.0 + u_amplitude);
  float stableTime = floor(u_time * rate) / rate;
  float damp = mix(1.0, 0.3, clamp(u_amplitude, 0.0, 1.0));
  float sum = 0.0;
  for (int k = 1; k <= MAX_HARMONICS; k++) {
    float i = float(k);
    if (i > u_complexity) {
      break;
    }
    float randomFactor = hash(i + line) * damp;
    float phase = stableTime * (0.5 + randomFactor * 0.5) + linePhase;
    float freq = u_frequency * stability * (1.0 + hash(i * line) * u_desync * stability);
    sum += sin(u * freq + phase) * (u_amplitude / (i + u_amplitude * 0.5));
  }
  return sum * (1.0 - exp(-u_complexity));
}

float disruption(vec2 uv) {
  if (u_hasTex < 0.5) {
    return 0.0;
  }
  vec3 c = texture2D(u_tex, uv).rgb;
  return clamp(dot(c, vec3(0.299, 0.587, 0.114)), 0.0, 1.0) * DISRUPTION;
}

void main(void) {
  vec2 uv = v_uv;
  float halfWeight = (u_weight / u_rows) * 0.15;
  float aa = 1.0 / u_resolution.y;
  float cover = 0.0;
  for (int k = 0; k < MAX_ROWS; k++) {
    float i = float(k);
    if (i >= u_rows) {
      break;
    }
    float lineY = i / u_rows;
    float finalY = lineY + displacement(uv.x, i) + disruption(vec2(uv.x, lineY));
    float dist = abs(uv.y - finalY);
    cover = max(cover, 1.0 - smoothstep(halfWeight, halfWeight + aa, dist));
  }
  vec3 color = mix(u_background, u_lineColor, cover) * u_brightness;
  gl_FragColor = vec4(clamp(color, 0.0, 1.0), 1.0);
}
`

// FragmentShader returns the NUL-terminated fragment shader source.
func FragmentShader() string {
	return fmt.Sprintf(fragmentTemplate,
		params.MaxRows,
		params.MaxComplexity,
		glslFloat(wave.HashScale),
		glslFloat(wave.HashGain),
		glslFloat(media.DisruptionScale),
	) + "\x00"
}

// glslFloat formats v as a GLSL float literal, which needs a decimal point.
func glslFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for _, c := range s {
		if c == '.' {
			return s
		}
	}
	return s + ".0"
}

// detectionTexels is the width of the detection texture.
const detectionTexels = detect.Capacity
