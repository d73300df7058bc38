package opengl

import (
	"strconv"
	"strings"

	"forward-engine/render"
)

const uniformModel = "u_model"

const vertexShader = `
layout(location = 0) in vec3 a_position;
layout(location = 1) in vec3 a_normal;
layout(location = 2) in vec2 a_uv;
layout(location = 3) in vec4 a_color;
#ifdef INSTANCED
layout(location = 4) in mat4 a_model;
#else
uniform mat4 u_model;
#endif

uniform mat4 u_viewProj;
uniform vec2 u_uvOffset;
uniform vec2 u_uvScale;

out vec3 v_worldPos;
out vec3 v_normal;
out vec2 v_uv;
out vec4 v_color;

void main() {
#ifdef INSTANCED
    mat4 model = a_model;
#else
    mat4 model = u_model;
#endif
    vec4 world = model * vec4(a_position, 1.0);
    v_worldPos = world.xyz;
    v_normal   = mat3(model) * a_normal;
    v_uv       = u_uvOffset + a_uv * u_uvScale;
    v_color    = a_color;
    gl_Position = u_viewProj * world;
}
`

const fragmentShader = `
in vec3 v_worldPos;
in vec3 v_normal;
in vec2 v_uv;
in vec4 v_color;

out vec4 fragColor;

uniform vec4 u_color;
#ifdef TEXTURED
uniform sampler2D u_texture;
#endif

#ifdef LIT
struct Light {
    int  type;
    vec3 position;
    vec3 direction;
    vec3 attenuation;
    vec4 ambient;
    vec4 diffuse;
    vec4 specular;
};
uniform Light u_lights[MAX_LIGHTS];
uniform int   u_lightCount;
uniform vec4  u_ambient;
uniform vec3  u_cameraPos;
uniform vec4  u_specular;
uniform float u_shininess;

vec3 shade(Light l, vec3 n, vec3 viewDir, vec3 base) {
    vec3 toLight;
    float att = 1.0;
    if (l.type == 0) {
        toLight = normalize(-l.direction);
    } else {
        vec3 d = l.position - v_worldPos;
        float dist = length(d);
        toLight = d / max(dist, 1e-4);
        att = 1.0 / (l.attenuation.x + l.attenuation.y * dist + l.attenuation.z * dist * dist);
    }
    float diff = max(dot(n, toLight), 0.0);
    vec3 h = normalize(toLight + viewDir);
    float spec = diff > 0.0 ? pow(max(dot(n, h), 0.0), u_shininess) : 0.0;
    vec3 c = l.ambient.rgb * base + l.diffuse.rgb * diff * base + l.specular.rgb * u_specular.rgb * spec;
    return c * att;
}
#endif

void main() {
    vec4 base = u_color * v_color;
#ifdef TEXTURED
    base *= texture(u_texture, v_uv);
#endif
#ifdef LIT
    vec3 n = normalize(v_normal);
    vec3 viewDir = normalize(u_cameraPos - v_worldPos);
    vec3 c = u_ambient.rgb * base.rgb;
    for (int i = 0; i < u_lightCount; i++) {
        c += shade(u_lights[i], n, viewDir, base.rgb);
    }
    base = vec4(c, base.a);
#endif
    if (base.a <= 0.0) {
        discard;
    }
    fragColor = base;
}
`

// shaderSources returns the vertex and fragment source for b.
func shaderSources(b render.Binding) (vert, frag string) {
	var h strings.Builder
	h.WriteString("#version 410 core\n")
	h.WriteString("#define MAX_LIGHTS " + strconv.Itoa(render.MaxLights) + "\n")
	if b.Lit() {
		h.WriteString("#define LIT\n")
	}
	if b.Textured() {
		h.WriteString("#define TEXTURED\n")
	}
	if b.Instanced() {
		h.WriteString("#define INSTANCED\n")
	}
	header := h.String()
	return header + vertexShader, header + fragmentShader
}
